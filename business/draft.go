package business

import (
	"strconv"
	"strings"

	"github.com/bizmob/ledger/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DRAFTS - What the entry forms submit
// =============================================================================

// PurchaseDraft is a purchase before it gets an id and creation time.
// A zero InitialSalePrice means "not supplied".
type PurchaseDraft struct {
	PurchaseDate     *generic.TimePoint
	SupplierName     string
	ProductName      string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	InitialSalePrice decimal.Decimal
}

// SaleItemDraft is one requested line of a sale.
type SaleItemDraft struct {
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// SaleDraft is a sale before admission. AmountPaid is read only for
// partial sales.
type SaleDraft struct {
	SaleDate            *generic.TimePoint
	ClientName          string
	Items               []SaleItemDraft
	PaymentStatus       PaymentStatus
	AmountPaid          decimal.Decimal
	ExpectedPaymentDate *generic.TimePoint
}

// SalePatch is what the edit-sale form may change. Nil fields are kept.
type SalePatch struct {
	ClientName          *string
	SaleDate            *generic.TimePoint
	PaymentStatus       *PaymentStatus
	AmountPaid          *decimal.Decimal
	ExpectedPaymentDate *generic.TimePoint
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizePurchase validates a draft and fills in the derived total.
// The id and creation date are left for the caller.
func NormalizePurchase(d PurchaseDraft) (Purchase, error) {
	productName := strings.TrimSpace(d.ProductName)
	if productName == "" {
		return Purchase{}, &generic.ValidationError{Field: "productName", Message: "is required"}
	}
	if !d.Quantity.IsPositive() {
		return Purchase{}, &generic.ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	if d.UnitPrice.IsNegative() {
		return Purchase{}, &generic.ValidationError{Field: "unitPrice", Message: "must not be negative"}
	}
	if d.InitialSalePrice.IsNegative() {
		return Purchase{}, &generic.ValidationError{Field: "initialSalePrice", Message: "must not be negative"}
	}

	return Purchase{
		PurchaseDate:     d.PurchaseDate,
		SupplierName:     strings.TrimSpace(d.SupplierName),
		ProductName:      productName,
		Quantity:         d.Quantity,
		UnitPrice:        d.UnitPrice,
		InitialSalePrice: d.InitialSalePrice,
		TotalPrice:       d.Quantity.Mul(d.UnitPrice),
	}, nil
}

// NormalizeSale validates a draft, computes line and sale totals, and sets
// the debt fields for its payment status.
func NormalizeSale(d SaleDraft) (Sale, error) {
	clientName := strings.TrimSpace(d.ClientName)
	if clientName == "" {
		return Sale{}, &generic.ValidationError{Field: "clientName", Message: "is required"}
	}
	if len(d.Items) == 0 {
		return Sale{}, &generic.ValidationError{Field: "items", Message: "at least one item is required"}
	}

	items := make([]SaleItem, 0, len(d.Items))
	total := decimal.Zero
	for i, it := range d.Items {
		name := strings.TrimSpace(it.ProductName)
		if name == "" {
			return Sale{}, &generic.ValidationError{Field: itemField(i, "productName"), Message: "is required"}
		}
		if !it.Quantity.IsPositive() {
			return Sale{}, &generic.ValidationError{Field: itemField(i, "quantity"), Message: "must be greater than zero"}
		}
		if it.UnitPrice.IsNegative() {
			return Sale{}, &generic.ValidationError{Field: itemField(i, "unitPrice"), Message: "must not be negative"}
		}
		line := it.Quantity.Mul(it.UnitPrice)
		items = append(items, SaleItem{
			ProductName: name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  line,
		})
		total = total.Add(line)
	}

	sale := Sale{
		SaleDate:            d.SaleDate,
		ClientName:          clientName,
		Items:               items,
		TotalAmount:         total,
		PaymentStatus:       d.PaymentStatus,
		ExpectedPaymentDate: d.ExpectedPaymentDate,
	}
	if err := settle(&sale, d.AmountPaid); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// ApplyPatch returns a copy of sale with the patch applied and the debt
// fields re-derived. Items are not editable.
func ApplyPatch(sale Sale, p SalePatch) (Sale, error) {
	out := sale
	out.Items = append([]SaleItem(nil), sale.Items...)

	if p.ClientName != nil {
		name := strings.TrimSpace(*p.ClientName)
		if name == "" {
			return Sale{}, &generic.ValidationError{Field: "clientName", Message: "is required"}
		}
		out.ClientName = name
	}
	if p.SaleDate != nil {
		out.SaleDate = p.SaleDate
	}
	if p.PaymentStatus != nil {
		out.PaymentStatus = *p.PaymentStatus
	}
	if p.ExpectedPaymentDate != nil {
		out.ExpectedPaymentDate = p.ExpectedPaymentDate
	}

	paid := generic.ValueOrZero(sale.AmountPaid)
	if p.AmountPaid != nil {
		paid = *p.AmountPaid
	}
	if err := settle(&out, paid); err != nil {
		return Sale{}, err
	}
	return out, nil
}

// settle sets AmountPaid, RemainingDebt and ExpectedPaymentDate for the
// sale's status.
//
//	paid:    both cleared, no due date
//	partial: 0 < amountPaid < total, remaining = total - paid
//	debt:    remaining = total
func settle(s *Sale, amountPaid decimal.Decimal) error {
	switch s.PaymentStatus {
	case StatusPaid:
		s.AmountPaid = nil
		s.RemainingDebt = nil
		s.ExpectedPaymentDate = nil
		return nil
	case StatusPartial:
		if !amountPaid.IsPositive() || !amountPaid.LessThan(s.TotalAmount) {
			return &generic.ValidationError{
				Field:   "amountPaid",
				Message: "must be greater than zero and less than the total " + s.TotalAmount.StringFixed(2),
			}
		}
		s.AmountPaid = generic.DecimalPtr(amountPaid)
		s.RemainingDebt = generic.DecimalPtr(s.TotalAmount.Sub(amountPaid))
	case StatusDebt:
		s.AmountPaid = nil
		s.RemainingDebt = generic.DecimalPtr(s.TotalAmount)
	default:
		return &generic.ValidationError{Field: "paymentStatus", Message: "must be one of paid, partial, debt"}
	}
	if s.ExpectedPaymentDate == nil || s.ExpectedPaymentDate.IsZero() {
		return &generic.ValidationError{Field: "expectedPaymentDate", Message: "is required when payment is outstanding"}
	}
	return nil
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
