/*
notifications.go - Overdue and due-soon detection

PURPOSE:
  Scans the debt rows and sales for payments that need attention. Pure: the
  same debts, sales and instant always produce the same alerts, in the same
  order. Nothing is remembered between scans.

RULES (evaluated independently, results concatenated):
  1. Aging debt, per Debt row with a positive balance.
     Age = floor(days since the client's oldest debt-carrying sale).
       age > OverdueDays (30)   → debt_overdue
       age > FollowUpDays (14)  → debt_follow_up
       otherwise                → nothing
  2. Due date, per partial/debt sale with an expected payment date.
     Left = ceil(days until the expected payment date).
       0 <= left <= DueSoonDays (3) → payment_due_soon
       left < 0                     → payment_overdue

  Both thresholds in rule 1 are exclusive: exactly 14 days is silent,
  exactly 31 days is overdue.

SEE ALSO:
  - api/scheduler.go: Periodic sweep that logs these
*/
package business

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizmob/ledger/generic"
)

// AlertKind classifies an alert.
type AlertKind string

const (
	AlertDebtOverdue    AlertKind = "debt_overdue"
	AlertDebtFollowUp   AlertKind = "debt_follow_up"
	AlertPaymentDueSoon AlertKind = "payment_due_soon"
	AlertPaymentOverdue AlertKind = "payment_overdue"
)

// Alert is one condition found by a scan. Days is the debt age for the
// debt kinds, days left or days late for the payment kinds.
type Alert struct {
	Kind       AlertKind       `json:"kind"`
	ClientName string          `json:"clientName"`
	DebtID     string          `json:"debtId,omitempty"`
	SaleID     string          `json:"saleId,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Days       int             `json:"days"`
	Message    string          `json:"message"`
}

// Thresholds are the day limits of the two rules.
type Thresholds struct {
	OverdueDays  int
	FollowUpDays int
	DueSoonDays  int
	// CurrencySymbol prefixes amounts in messages. Empty means "$".
	CurrencySymbol string
}

// DefaultThresholds returns 30 / 14 / 3 days.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverdueDays:    30,
		FollowUpDays:   14,
		DueSoonDays:    3,
		CurrencySymbol: generic.DefaultCurrencySymbol,
	}
}

// ScanAlerts evaluates both rules at now.
func ScanAlerts(debts []Debt, sales []Sale, now time.Time, th Thresholds) []Alert {
	var alerts []Alert

	for _, debt := range debts {
		if !debt.TotalDebt.IsPositive() {
			continue
		}
		oldest, ok := oldestDebtSale(sales, debt.ClientName)
		if !ok {
			continue
		}
		age := generic.DaysSince(oldest.EffectiveDate(), now)
		amount := generic.FormatCurrency(debt.TotalDebt, th.CurrencySymbol)

		switch {
		case age > th.OverdueDays:
			alerts = append(alerts, Alert{
				Kind:       AlertDebtOverdue,
				ClientName: debt.ClientName,
				DebtID:     debt.ID,
				SaleID:     oldest.ID,
				Amount:     debt.TotalDebt,
				Days:       age,
				Message:    fmt.Sprintf("%s has an overdue debt of %s from %d days ago", debt.ClientName, amount, age),
			})
		case age > th.FollowUpDays:
			alerts = append(alerts, Alert{
				Kind:       AlertDebtFollowUp,
				ClientName: debt.ClientName,
				DebtID:     debt.ID,
				SaleID:     oldest.ID,
				Amount:     debt.TotalDebt,
				Days:       age,
				Message:    fmt.Sprintf("%s owes %s - Consider following up (%d days old)", debt.ClientName, amount, age),
			})
		}
	}

	for _, sale := range sales {
		if !sale.PaymentStatus.Owing() || sale.ExpectedPaymentDate == nil || sale.ExpectedPaymentDate.IsZero() {
			continue
		}
		left := generic.DaysUntil(sale.ExpectedPaymentDate.Time, now)
		owed := sale.OutstandingAmount()
		amount := generic.FormatCurrency(owed, th.CurrencySymbol)

		switch {
		case left >= 0 && left <= th.DueSoonDays:
			alerts = append(alerts, Alert{
				Kind:       AlertPaymentDueSoon,
				ClientName: sale.ClientName,
				SaleID:     sale.ID,
				Amount:     owed,
				Days:       left,
				Message:    fmt.Sprintf("%s payment of %s is due in %d %s", sale.ClientName, amount, left, days(left)),
			})
		case left < 0:
			late := -left
			alerts = append(alerts, Alert{
				Kind:       AlertPaymentOverdue,
				ClientName: sale.ClientName,
				SaleID:     sale.ID,
				Amount:     owed,
				Days:       late,
				Message:    fmt.Sprintf("%s payment of %s is %d %s overdue", sale.ClientName, amount, late, days(late)),
			})
		}
	}

	return alerts
}

// CheckNotifications returns the alert messages at now with the default
// thresholds.
func CheckNotifications(debts []Debt, sales []Sale, now time.Time) []string {
	return Messages(ScanAlerts(debts, sales, now, DefaultThresholds()))
}

// Messages projects alerts to their text.
func Messages(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

// oldestDebtSale finds the earliest sale of the client that carries debt.
func oldestDebtSale(sales []Sale, clientName string) (Sale, bool) {
	var candidates []Sale
	for _, s := range sales {
		if s.ClientName == clientName && s.CarriesDebt() {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return Sale{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectiveDate().Before(candidates[j].EffectiveDate())
	})
	return candidates[0], true
}

func days(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
