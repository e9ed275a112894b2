/*
debt.go - The debt ledger: accrual and payments

PURPOSE:
  Tracks what each client owes. Unlike the product and client views, the
  debt ledger is incremental: rows are adjusted one sale or one payment at a
  time and never rebuilt from history, because payments are not part of the
  sale history.

ROWS:
  One Debt row per client. A debt sale adds its full total, a partial sale
  adds its remainder. The sale id is appended to SalesIDs. Rows stay after
  reaching zero.

PAYMENTS:
  RecordPayment reduces a row and emits an immutable DebtPayment holding
  the balance before and after. What happens when the payment exceeds the
  balance is an OverpaymentPolicy:

    clamp  (default) balance floors at zero, the excess is ignored
    reject           ErrOverpayment, nothing changes
    credit           balance goes negative, a credit for the client

EDITS:
  AdjustDebt moves a row by the change in an edited sale's debt amount.
  Moving a sale to another client reverses it on the old row and accrues
  it on the new one, which the ledger only allows while the old row has
  no payments.

RECONCILIATION:
  For one client, under clamp:
    balance == Σ accrued - Σ paid, where payments never take it below zero
  and every DebtPayment satisfies newDebt == max(0, previousDebt - amountPaid).

SEE ALSO:
  - clients.go: ProjectClientDebt mirrors balances onto clients
  - ledger.go: Calls these under the ledger lock
*/
package business

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizmob/ledger/generic"
)

var debtNamespace = uuid.MustParse("c4a7e2d9-1b38-4f6e-9a05-8e2d7c3b6f14")

// DebtID returns the stable id of a client's debt row.
func DebtID(clientName string) string {
	return uuid.NewSHA1(debtNamespace, []byte(clientName)).String()
}

// OverpaymentPolicy decides what a payment larger than the balance does.
type OverpaymentPolicy string

const (
	OverpaymentClamp  OverpaymentPolicy = "clamp"
	OverpaymentReject OverpaymentPolicy = "reject"
	OverpaymentCredit OverpaymentPolicy = "credit"
)

func (p OverpaymentPolicy) Valid() bool {
	switch p {
	case OverpaymentClamp, OverpaymentReject, OverpaymentCredit:
		return true
	}
	return false
}

// =============================================================================
// ACCRUAL
// =============================================================================

// AccrueDebt adds the sale's debt amount to its client's row, creating the
// row on first debt. Owing sales are recorded in SalesIDs even when the
// amount is zero; paid sales leave debts unchanged. The input slice is not
// modified.
func AccrueDebt(debts []Debt, sale Sale) []Debt {
	amount := sale.DebtAmount()
	if !sale.PaymentStatus.Owing() {
		return cloneDebts(debts)
	}

	out := cloneDebts(debts)
	for i := range out {
		if out[i].ClientName == sale.ClientName {
			out[i].TotalDebt = out[i].TotalDebt.Add(amount)
			out[i].SalesIDs = append(out[i].SalesIDs, sale.ID)
			return out
		}
	}
	return append(out, Debt{
		ID:         DebtID(sale.ClientName),
		ClientName: sale.ClientName,
		TotalDebt:  amount,
		SalesIDs:   []string{sale.ID},
	})
}

// ReverseDebt removes a sale's contribution from its client's row: the
// amount is subtracted (floored at zero) and the sale id dropped. Used when
// a sale is edited or deleted.
func ReverseDebt(debts []Debt, sale Sale) []Debt {
	out := cloneDebts(debts)
	for i := range out {
		if !slices.Contains(out[i].SalesIDs, sale.ID) {
			continue
		}
		if sale.PaymentStatus.Owing() {
			out[i].TotalDebt = generic.ClampZero(out[i].TotalDebt.Sub(sale.DebtAmount()))
		}
		out[i].SalesIDs = slices.DeleteFunc(out[i].SalesIDs, func(id string) bool { return id == sale.ID })
	}
	return out
}

// AdjustDebt applies an edit of a sale that keeps its client. The row moves
// by the change in the sale's debt amount only, so payments already taken
// off the row stay taken off. The sale id joins or leaves SalesIDs as the
// sale starts or stops owing. It returns the new debts and the change.
func AdjustDebt(debts []Debt, old, updated Sale) ([]Debt, decimal.Decimal) {
	delta := owed(updated).Sub(owed(old))

	out := cloneDebts(debts)
	idx := slices.IndexFunc(out, func(d Debt) bool { return d.ClientName == updated.ClientName })
	if idx < 0 {
		return AccrueDebt(debts, updated), delta
	}

	row := &out[idx]
	row.TotalDebt = row.TotalDebt.Add(delta)
	owing := updated.PaymentStatus.Owing()
	listed := slices.Contains(row.SalesIDs, updated.ID)
	switch {
	case owing && !listed:
		row.SalesIDs = append(row.SalesIDs, updated.ID)
	case !owing && listed:
		row.SalesIDs = slices.DeleteFunc(row.SalesIDs, func(id string) bool { return id == updated.ID })
	}
	return out, delta
}

func owed(s Sale) decimal.Decimal {
	if !s.PaymentStatus.Owing() {
		return decimal.Zero
	}
	return s.DebtAmount()
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentRequest is money collected against a debt row.
type PaymentRequest struct {
	DebtID        string
	Amount        decimal.Decimal
	PaymentMethod string
	At            time.Time
}

// PaymentOutcome is the new ledger state after a payment.
type PaymentOutcome struct {
	Debts   []Debt
	Clients []Client
	Payment DebtPayment
}

// RecordPayment applies a payment to a debt row. It reduces the row, mirrors
// the reduction onto the matching client, and returns the DebtPayment to
// append. An unknown debt id yields a NotFoundError and no change. The
// amount is not range-checked here beyond what the policy requires.
func RecordPayment(debts []Debt, clients []Client, req PaymentRequest, policy OverpaymentPolicy) (PaymentOutcome, error) {
	idx := slices.IndexFunc(debts, func(d Debt) bool { return d.ID == req.DebtID })
	if idx < 0 {
		return PaymentOutcome{}, &generic.NotFoundError{Kind: "debt", ID: req.DebtID}
	}
	debt := debts[idx]
	previous := debt.TotalDebt
	remaining := previous.Sub(req.Amount)

	switch policy {
	case OverpaymentReject:
		if remaining.IsNegative() {
			return PaymentOutcome{}, &generic.OverpaymentError{
				DebtID:      debt.ID,
				Outstanding: previous,
				Offered:     req.Amount,
			}
		}
	case OverpaymentCredit:
	default:
		remaining = generic.ClampZero(remaining)
	}

	payment := DebtPayment{
		ID:            uuid.NewString(),
		Date:          req.At,
		ClientName:    debt.ClientName,
		DebtID:        debt.ID,
		AmountPaid:    req.Amount,
		PreviousDebt:  previous,
		NewDebt:       remaining,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	}

	outDebts := cloneDebts(debts)
	outDebts[idx].TotalDebt = remaining

	outClients := make([]Client, len(clients))
	for i, c := range clients {
		if c.Name == debt.ClientName {
			c.TotalDebt = c.TotalDebt.Sub(req.Amount)
			if policy != OverpaymentCredit {
				c.TotalDebt = generic.ClampZero(c.TotalDebt)
			}
		}
		outClients[i] = c
	}

	return PaymentOutcome{Debts: outDebts, Clients: outClients, Payment: payment}, nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// FindDebt returns the debt row with the given id.
func FindDebt(debts []Debt, id string) (Debt, bool) {
	for _, d := range debts {
		if d.ID == id {
			return d, true
		}
	}
	return Debt{}, false
}

// DebtForSale returns the row that carries the sale.
func DebtForSale(debts []Debt, saleID string) (Debt, bool) {
	for _, d := range debts {
		if slices.Contains(d.SalesIDs, saleID) {
			return d, true
		}
	}
	return Debt{}, false
}

// HasPayments reports whether any payment was recorded against debtID.
func HasPayments(payments []DebtPayment, debtID string) bool {
	return slices.ContainsFunc(payments, func(p DebtPayment) bool { return p.DebtID == debtID })
}

// PaymentsFor returns the payments recorded against debtID, oldest first.
func PaymentsFor(payments []DebtPayment, debtID string) []DebtPayment {
	var out []DebtPayment
	for _, p := range payments {
		if p.DebtID == debtID {
			out = append(out, p)
		}
	}
	return out
}

// OutstandingTotal sums the positive balances of all rows.
func OutstandingTotal(debts []Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		if d.TotalDebt.IsPositive() {
			total = total.Add(d.TotalDebt)
		}
	}
	return total
}

func cloneDebts(debts []Debt) []Debt {
	out := make([]Debt, len(debts))
	for i, d := range debts {
		d.SalesIDs = slices.Clone(d.SalesIDs)
		out[i] = d
	}
	return out
}
