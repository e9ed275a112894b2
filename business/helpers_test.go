package business_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, label ...string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s want %s, got %s", strings.Join(label, " "), want, got.String())
}

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func datePtr(year int, month time.Month, day int) *generic.TimePoint {
	tp := date(year, month, day)
	return &tp
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func purchase(id, product string, qty, price string) business.Purchase {
	return business.Purchase{
		ID:          id,
		Date:        at(2025, time.January, 1),
		ProductName: product,
		Quantity:    d(qty),
		UnitPrice:   d(price),
		TotalPrice:  d(qty).Mul(d(price)),
	}
}

func paidSale(id, client, product, qty, price string) business.Sale {
	total := d(qty).Mul(d(price))
	return business.Sale{
		ID:         id,
		Date:       at(2025, time.January, 2),
		ClientName: client,
		Items: []business.SaleItem{{
			ProductName: product, Quantity: d(qty), UnitPrice: d(price), TotalPrice: total,
		}},
		TotalAmount:   total,
		PaymentStatus: business.StatusPaid,
	}
}

func debtSale(id, client string, total string, on time.Time) business.Sale {
	return business.Sale{
		ID:         id,
		Date:       on,
		ClientName: client,
		Items: []business.SaleItem{{
			ProductName: "Rice", Quantity: d("1"), UnitPrice: d(total), TotalPrice: d(total),
		}},
		TotalAmount:   d(total),
		PaymentStatus: business.StatusDebt,
		RemainingDebt: generic.DecimalPtr(d(total)),
	}
}

func partialSale(id, client, total, paid string, on time.Time) business.Sale {
	s := debtSale(id, client, total, on)
	s.PaymentStatus = business.StatusPartial
	s.AmountPaid = generic.DecimalPtr(d(paid))
	s.RemainingDebt = generic.DecimalPtr(d(total).Sub(d(paid)))
	return s
}

func productNamed(t *testing.T, products []business.Product, name string) business.Product {
	t.Helper()
	p, ok := business.FindProduct(products, name)
	require.True(t, ok, "product %s not found", name)
	return p
}

func clientNamed(t *testing.T, clients []business.Client, name string) business.Client {
	t.Helper()
	c, ok := business.FindClient(clients, name)
	require.True(t, ok, "client %s not found", name)
	return c
}

type testLedger struct {
	*business.Ledger
	store *store.Memory
	clock *generic.FixedClock
}

func newTestLedger(t *testing.T, cfg business.Config) *testLedger {
	t.Helper()
	mem := store.NewMemory()
	clock := generic.NewFixedClock(at(2025, time.March, 1))
	l, err := business.Open(context.Background(), mem, business.Options{Config: cfg, Clock: clock})
	require.NoError(t, err)
	return &testLedger{Ledger: l, store: mem, clock: clock}
}

func (tl *testLedger) buy(t *testing.T, product, qty, price string) business.Purchase {
	t.Helper()
	p, err := tl.AddPurchase(context.Background(), business.PurchaseDraft{
		SupplierName: "Wholesale Co",
		ProductName:  product,
		Quantity:     d(qty),
		UnitPrice:    d(price),
	})
	require.NoError(t, err)
	return p
}

func (tl *testLedger) sell(t *testing.T, draft business.SaleDraft) business.Sale {
	t.Helper()
	s, err := tl.AddSale(context.Background(), draft)
	require.NoError(t, err)
	return s
}

func debtDraft(client, product, qty, price string) business.SaleDraft {
	return business.SaleDraft{
		ClientName:          client,
		Items:               []business.SaleItemDraft{{ProductName: product, Quantity: d(qty), UnitPrice: d(price)}},
		PaymentStatus:       business.StatusDebt,
		ExpectedPaymentDate: datePtr(2025, time.March, 15),
	}
}

func paidDraft(client, product, qty, price string) business.SaleDraft {
	return business.SaleDraft{
		ClientName:    client,
		Items:         []business.SaleItemDraft{{ProductName: product, Quantity: d(qty), UnitPrice: d(price)}},
		PaymentStatus: business.StatusPaid,
	}
}

// assertReconciled checks that a client's debt row equals what its owing
// sales accrued minus what was paid against it.
func assertReconciled(t *testing.T, tl *testLedger, client string) {
	t.Helper()
	accrued := decimal.Zero
	for _, s := range tl.Sales() {
		if s.ClientName == client && s.PaymentStatus.Owing() {
			accrued = accrued.Add(s.DebtAmount())
		}
	}
	row, err := tl.Debt(business.DebtID(client))
	require.NoError(t, err)
	paid := decimal.Zero
	for _, p := range business.PaymentsFor(tl.Payments(), row.ID) {
		paid = paid.Add(p.AmountPaid)
	}
	assertDec(t, accrued.Sub(paid).String(), row.TotalDebt, client, "accrued - paid")
}
