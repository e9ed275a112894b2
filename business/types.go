/*
Package business implements the small-business ledger: purchases and sales
history, derived inventory and client views, the debt ledger, and payment
alerts.

PURPOSE:
  A shop owner records what they buy (purchases) and what they sell (sales).
  Everything else is derived from that history:

    Purchase[] ──┐
                 ├──► RecomputeProducts ──► Product[]   (stock, avg cost)
    Sale[] ──────┤
                 └──► RecomputeClients ───► Client[]    (spend, debt, count)

    Sale (unpaid) ──► AccrueDebt ──► Debt[] ◄── RecordPayment ──► DebtPayment[]

    Debt[] + Sale[] + now ──► ScanAlerts ──► Alert[]

KEY CONCEPTS:
  Derived views: Product and Client are never edited directly. They are
  recomputed from the full history after every mutation, so recomputing
  twice gives the same answer.

  Debt ledger: Debt rows are incremental. A debt sale adds to the client's
  row; a payment subtracts from it and appends an immutable DebtPayment.
  The ledger is the source of truth for what a client owes.

  Effective date: a record's user-assigned date (purchaseDate / saleDate)
  when set, its creation timestamp otherwise.

WIRE FORMAT:
  JSON field names are camelCase and match the persisted collections
  ("purchases", "sales", ...) so existing export files import unchanged.

SEE ALSO:
  - ledger.go: The Ledger aggregate that owns all collections
  - inventory.go, clients.go, debt.go, notifications.go: Pure functions
*/
package business

import (
	"time"

	"github.com/bizmob/ledger/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT STATUS
// =============================================================================

// PaymentStatus describes how much of a sale was settled at the till.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"    // settled in full
	StatusPartial PaymentStatus = "partial" // some paid, remainder owed
	StatusDebt    PaymentStatus = "debt"    // nothing paid
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusDebt:
		return true
	}
	return false
}

// Owing reports whether the status leaves a balance to collect.
func (s PaymentStatus) Owing() bool {
	return s == StatusPartial || s == StatusDebt
}

// =============================================================================
// HISTORY RECORDS
// =============================================================================

// Purchase is a stock intake from a supplier.
type Purchase struct {
	ID               string             `json:"id"`
	Date             time.Time          `json:"date"`
	PurchaseDate     *generic.TimePoint `json:"purchaseDate,omitempty"`
	SupplierName     string             `json:"supplierName"`
	ProductName      string             `json:"productName"`
	Quantity         decimal.Decimal    `json:"quantity"`
	UnitPrice        decimal.Decimal    `json:"unitPrice"`
	InitialSalePrice decimal.Decimal    `json:"initialSalePrice"`
	TotalPrice       decimal.Decimal    `json:"totalPrice"`
}

// EffectiveDate returns PurchaseDate when set, Date otherwise.
func (p Purchase) EffectiveDate() time.Time {
	if p.PurchaseDate != nil && !p.PurchaseDate.IsZero() {
		return p.PurchaseDate.Time
	}
	return p.Date
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// Sale is a transaction with a client. AmountPaid is present only for
// partial sales; RemainingDebt for partial and debt sales.
type Sale struct {
	ID                  string             `json:"id"`
	Date                time.Time          `json:"date"`
	SaleDate            *generic.TimePoint `json:"saleDate,omitempty"`
	ClientName          string             `json:"clientName"`
	Items               []SaleItem         `json:"items"`
	TotalAmount         decimal.Decimal    `json:"totalAmount"`
	PaymentStatus       PaymentStatus      `json:"paymentStatus"`
	AmountPaid          *decimal.Decimal   `json:"amountPaid,omitempty"`
	RemainingDebt       *decimal.Decimal   `json:"remainingDebt,omitempty"`
	ExpectedPaymentDate *generic.TimePoint `json:"expectedPaymentDate,omitempty"`
}

// EffectiveDate returns SaleDate when set, Date otherwise.
func (s Sale) EffectiveDate() time.Time {
	if s.SaleDate != nil && !s.SaleDate.IsZero() {
		return s.SaleDate.Time
	}
	return s.Date
}

// CarriesDebt reports whether the sale contributed to a client's debt:
// status debt, or a non-zero remainingDebt.
func (s Sale) CarriesDebt() bool {
	return s.PaymentStatus == StatusDebt || generic.IsSet(s.RemainingDebt)
}

// DebtAmount is what the sale adds to the debt ledger: the full total for a
// debt sale, the remainder otherwise.
func (s Sale) DebtAmount() decimal.Decimal {
	if s.PaymentStatus == StatusDebt {
		return s.TotalAmount
	}
	return generic.ValueOrZero(s.RemainingDebt)
}

// OutstandingAmount is remainingDebt, falling back to the sale total when
// remainingDebt is absent or zero.
func (s Sale) OutstandingAmount() decimal.Decimal {
	if generic.IsSet(s.RemainingDebt) {
		return *s.RemainingDebt
	}
	return s.TotalAmount
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Product is the inventory view of one product name.
type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	CurrentStock         decimal.Decimal `json:"currentStock"`
	TotalPurchased       decimal.Decimal `json:"totalPurchased"`
	TotalSold            decimal.Decimal `json:"totalSold"`
	LastPurchasePrice    decimal.Decimal `json:"lastPurchasePrice"`
	AveragePurchasePrice decimal.Decimal `json:"averagePurchasePrice"`
	InitialSalePrice     decimal.Decimal `json:"initialSalePrice"`
}

// StockValue is current stock valued at average cost.
func (p Product) StockValue() decimal.Decimal {
	return p.CurrentStock.Mul(p.AveragePurchasePrice)
}

// Client is the aggregate view of one client name.
type Client struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	TotalPurchases      decimal.Decimal `json:"totalPurchases"`
	TotalDebt           decimal.Decimal `json:"totalDebt"`
	TransactionCount    int             `json:"transactionCount"`
	LastTransactionDate time.Time       `json:"lastTransactionDate"`
	Phone               string          `json:"phone,omitempty"`
	Email               string          `json:"email,omitempty"`
}

// =============================================================================
// DEBT LEDGER
// =============================================================================

// Debt is the running balance of one client. Rows are never removed, even
// at zero, so SalesIDs keeps the history of contributing sales.
type Debt struct {
	ID         string          `json:"id"`
	ClientName string          `json:"clientName"`
	TotalDebt  decimal.Decimal `json:"totalDebt"`
	SalesIDs   []string        `json:"salesIds"`
}

// DebtPayment is an immutable record of money collected against a Debt.
type DebtPayment struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	ClientName    string          `json:"clientName"`
	DebtID        string          `json:"debtId"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	PreviousDebt  decimal.Decimal `json:"previousDebt"`
	NewDebt       decimal.Decimal `json:"newDebt"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// BusinessData holds the shop's settings.
type BusinessData struct {
	BusinessName   string `json:"businessName"`
	UserName       string `json:"userName"`
	Password       string `json:"password"`
	IsSetup        bool   `json:"isSetup"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currencySymbol"`
}

// DefaultBusinessData is used before the shop is set up.
func DefaultBusinessData() BusinessData {
	return BusinessData{
		Currency:       "USD",
		CurrencySymbol: generic.DefaultCurrencySymbol,
	}
}

// CheckPassword compares a login attempt with the stored password.
func (b BusinessData) CheckPassword(password string) bool {
	return b.Password == password
}

// Symbol returns the configured currency symbol or the default.
func (b BusinessData) Symbol() string {
	if b.CurrencySymbol == "" {
		return generic.DefaultCurrencySymbol
	}
	return b.CurrencySymbol
}

// =============================================================================
// PERSISTENCE KEYS
// =============================================================================

const (
	KeyBusinessData = "business_data"
	KeyPurchases    = "purchases"
	KeySales        = "sales"
	KeyDebts        = "debts"
	KeyProducts     = "products"
	KeyClients      = "clients"
	KeyDebtPayments = "debt_payments"
	KeyAuditLogs    = "audit_logs"
)

// AllKeys lists every persisted collection.
var AllKeys = []string{
	KeyBusinessData, KeyPurchases, KeySales, KeyDebts,
	KeyProducts, KeyClients, KeyDebtPayments, KeyAuditLogs,
}
