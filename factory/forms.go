/*
Package factory provides JSON to Go entry-form conversion.

PURPOSE:
  Converts the JSON submitted by the purchase and sale entry forms into
  business drafts. Forms are typed by people, so numeric fields arrive as
  JSON numbers or as strings ("12", "1,250.50", "$4"), and dates arrive as
  "YYYY-MM-DD". The factory accepts both and leaves validation of the
  amounts themselves to business.NormalizePurchase / NormalizeSale.

JSON SCHEMA (purchase):
  {
    "purchaseDate": "2025-03-01",
    "supplierName": "Mill Co",
    "productName": "Rice",
    "quantity": "10",
    "unitPrice": 5,
    "initialSalePrice": ""
  }

JSON SCHEMA (sale):
  {
    "saleDate": "2025-03-02",
    "clientName": "Acme",
    "items": [{"productName": "Rice", "quantity": 2, "unitPrice": "8"}],
    "paymentStatus": "partial",
    "amountPaid": "6",
    "expectedPaymentDate": "2025-03-20"
  }

USAGE:
  f := factory.NewFormFactory()
  draft, err := f.ParseSale(body)
  sale, err := ledger.AddSale(ctx, draft)

SEE ALSO:
  - business/draft.go: Draft types and normalization
  - api/handlers.go: Handlers that feed request bodies through the factory
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Number is a form field that holds either a JSON number or a string.
// Empty strings and null decode as unset.
type Number struct {
	Value decimal.Decimal
	Set   bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		if v, err := decimal.NewFromString(s); err == nil {
			*n = Number{Value: v, Set: true}
			return nil
		}
		v := generic.ParseCurrency(s)
		if v.IsZero() && !strings.ContainsAny(s, "0123456789") {
			return fmt.Errorf("%q is not a number", s)
		}
		*n = Number{Value: v, Set: true}
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%s is not a number", data)
	}
	*n = Number{Value: v, Set: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// PurchaseJSON is the purchase entry form.
type PurchaseJSON struct {
	PurchaseDate     string `json:"purchaseDate,omitempty"`
	SupplierName     string `json:"supplierName,omitempty"`
	ProductName      string `json:"productName"`
	Quantity         Number `json:"quantity"`
	UnitPrice        Number `json:"unitPrice"`
	InitialSalePrice Number `json:"initialSalePrice"`
}

// SaleItemJSON is one line of the sale entry form.
type SaleItemJSON struct {
	ProductName string `json:"productName"`
	Quantity    Number `json:"quantity"`
	UnitPrice   Number `json:"unitPrice"`
}

// SaleJSON is the sale entry form.
type SaleJSON struct {
	SaleDate            string         `json:"saleDate,omitempty"`
	ClientName          string         `json:"clientName"`
	Items               []SaleItemJSON `json:"items"`
	PaymentStatus       string         `json:"paymentStatus"`
	AmountPaid          Number         `json:"amountPaid"`
	ExpectedPaymentDate string         `json:"expectedPaymentDate,omitempty"`
}

// SalePatchJSON is the edit-sale form. Absent fields are left unchanged.
type SalePatchJSON struct {
	ClientName          *string `json:"clientName,omitempty"`
	SaleDate            *string `json:"saleDate,omitempty"`
	PaymentStatus       *string `json:"paymentStatus,omitempty"`
	AmountPaid          Number  `json:"amountPaid"`
	ExpectedPaymentDate *string `json:"expectedPaymentDate,omitempty"`
}

// PaymentJSON is the record-payment form.
type PaymentJSON struct {
	Amount        Number `json:"amount"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// =============================================================================
// FORM FACTORY
// =============================================================================

// FormFactory converts JSON forms to business drafts.
type FormFactory struct{}

// NewFormFactory creates a new form factory.
func NewFormFactory() *FormFactory {
	return &FormFactory{}
}

// ParsePurchase parses a purchase form.
func (f *FormFactory) ParsePurchase(data []byte) (business.PurchaseDraft, error) {
	var pj PurchaseJSON
	if err := decode(data, &pj); err != nil {
		return business.PurchaseDraft{}, err
	}
	return f.PurchaseFromJSON(pj)
}

// PurchaseFromJSON converts a decoded purchase form.
func (f *FormFactory) PurchaseFromJSON(pj PurchaseJSON) (business.PurchaseDraft, error) {
	date, err := parseDate("purchaseDate", pj.PurchaseDate)
	if err != nil {
		return business.PurchaseDraft{}, err
	}
	return business.PurchaseDraft{
		PurchaseDate:     date,
		SupplierName:     pj.SupplierName,
		ProductName:      pj.ProductName,
		Quantity:         pj.Quantity.Value,
		UnitPrice:        pj.UnitPrice.Value,
		InitialSalePrice: pj.InitialSalePrice.Value,
	}, nil
}

// ParseSale parses a sale form.
func (f *FormFactory) ParseSale(data []byte) (business.SaleDraft, error) {
	var sj SaleJSON
	if err := decode(data, &sj); err != nil {
		return business.SaleDraft{}, err
	}
	return f.SaleFromJSON(sj)
}

// SaleFromJSON converts a decoded sale form.
func (f *FormFactory) SaleFromJSON(sj SaleJSON) (business.SaleDraft, error) {
	status, err := parseStatus(sj.PaymentStatus)
	if err != nil {
		return business.SaleDraft{}, err
	}
	saleDate, err := parseDate("saleDate", sj.SaleDate)
	if err != nil {
		return business.SaleDraft{}, err
	}
	expected, err := parseDate("expectedPaymentDate", sj.ExpectedPaymentDate)
	if err != nil {
		return business.SaleDraft{}, err
	}

	items := make([]business.SaleItemDraft, 0, len(sj.Items))
	for _, it := range sj.Items {
		items = append(items, business.SaleItemDraft{
			ProductName: it.ProductName,
			Quantity:    it.Quantity.Value,
			UnitPrice:   it.UnitPrice.Value,
		})
	}

	return business.SaleDraft{
		SaleDate:            saleDate,
		ClientName:          sj.ClientName,
		Items:               items,
		PaymentStatus:       status,
		AmountPaid:          sj.AmountPaid.Value,
		ExpectedPaymentDate: expected,
	}, nil
}

// ParseSalePatch parses an edit-sale form.
func (f *FormFactory) ParseSalePatch(data []byte) (business.SalePatch, error) {
	var pj SalePatchJSON
	if err := decode(data, &pj); err != nil {
		return business.SalePatch{}, err
	}

	patch := business.SalePatch{ClientName: pj.ClientName}
	if pj.PaymentStatus != nil {
		status, err := parseStatus(*pj.PaymentStatus)
		if err != nil {
			return business.SalePatch{}, err
		}
		patch.PaymentStatus = &status
	}
	if pj.AmountPaid.Set {
		patch.AmountPaid = generic.DecimalPtr(pj.AmountPaid.Value)
	}
	if pj.SaleDate != nil {
		date, err := parseDate("saleDate", *pj.SaleDate)
		if err != nil {
			return business.SalePatch{}, err
		}
		patch.SaleDate = date
	}
	if pj.ExpectedPaymentDate != nil {
		date, err := parseDate("expectedPaymentDate", *pj.ExpectedPaymentDate)
		if err != nil {
			return business.SalePatch{}, err
		}
		patch.ExpectedPaymentDate = date
	}
	return patch, nil
}

// ParsePayment parses a record-payment form. The method defaults to "cash".
func (f *FormFactory) ParsePayment(data []byte) (decimal.Decimal, string, error) {
	var pj PaymentJSON
	if err := decode(data, &pj); err != nil {
		return decimal.Zero, "", err
	}
	if !pj.Amount.Set {
		return decimal.Zero, "", &generic.ValidationError{Field: "amount", Message: "is required"}
	}
	method := strings.TrimSpace(pj.PaymentMethod)
	if method == "" {
		method = "cash"
	}
	return pj.Amount.Value, method, nil
}

// PurchaseToJSON renders a stored purchase as a form, for pre-filling the
// edit screen.
func (f *FormFactory) PurchaseToJSON(p business.Purchase) PurchaseJSON {
	pj := PurchaseJSON{
		SupplierName:     p.SupplierName,
		ProductName:      p.ProductName,
		Quantity:         Number{Value: p.Quantity, Set: true},
		UnitPrice:        Number{Value: p.UnitPrice, Set: true},
		InitialSalePrice: Number{Value: p.InitialSalePrice, Set: !p.InitialSalePrice.IsZero()},
	}
	if p.PurchaseDate != nil {
		pj.PurchaseDate = p.PurchaseDate.String()
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &generic.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func parseDate(field, s string) (*generic.TimePoint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	tp, err := generic.ParseTimePoint(s)
	if err != nil {
		return nil, &generic.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD form"}
	}
	return &tp, nil
}

func parseStatus(s string) (business.PaymentStatus, error) {
	status := business.PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == "" {
		return business.StatusPaid, nil
	}
	if !status.Valid() {
		return "", &generic.ValidationError{Field: "paymentStatus", Message: "must be paid, partial or debt"}
	}
	return status, nil
}
