package business_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

func TestSummarize(t *testing.T) {
	purchases := []business.Purchase{
		purchase("p1", "Rice", "20", "5"),
		purchase("p2", "Salt", "4", "1"),
	}
	sales := []business.Sale{
		paidSale("s1", "Acme", "Rice", "10", "12"),
		debtSale("s2", "Bob", "30", at(2025, time.January, 3)),
	}
	debts := business.AccrueDebt(nil, sales[1])
	products := business.RecomputeProducts(nil, purchases, sales)

	s := business.Summarize(purchases, sales, debts, products)

	assertDec(t, "104", s.TotalPurchases)
	assertDec(t, "150", s.TotalSales)
	assertDec(t, "46", s.Profit)
	assertDec(t, "30.7", s.ProfitMargin)
	assertDec(t, "30", s.TotalDebts)
	assert.Equal(t, 1, s.ClientsWithDebt)
	assert.Equal(t, 2, s.ProductCount)
	require.Len(t, s.LowStock, 2, "Salt at 4 and Rice at 9 (one Rice sold on the debt sale)")
	assert.Equal(t, "Salt", s.LowStock[0].Name)
}

func TestSummarize_NoSales(t *testing.T) {
	s := business.Summarize(nil, nil, nil, nil)

	assertDec(t, "0", s.ProfitMargin)
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lowStock":[]`)
}

func TestPeriodBreakdown(t *testing.T) {
	jan := purchase("p1", "Rice", "10", "5")
	jan.Date = at(2025, time.January, 20)
	backdated := purchase("p2", "Rice", "2", "5")
	backdated.Date = at(2025, time.March, 3)
	backdated.PurchaseDate = datePtr(2025, time.February, 14)

	febSale := paidSale("s1", "Acme", "Rice", "3", "10")
	febSale.Date = at(2025, time.February, 2)
	outside := paidSale("s2", "Acme", "Rice", "1", "10")
	outside.Date = at(2025, time.May, 2)

	periods := business.PeriodBreakdown(
		[]business.Purchase{jan, backdated},
		[]business.Sale{febSale, outside},
		generic.NewTimePoint(2025, time.January, 1),
		generic.NewTimePoint(2025, time.March, 31),
	)

	require.Len(t, periods, 3)
	assert.Equal(t, "2025-01", periods[0].Period)
	assertDec(t, "50", periods[0].Purchases)
	assertDec(t, "-50", periods[0].Profit)

	assert.Equal(t, "2025-02", periods[1].Period)
	assertDec(t, "10", periods[1].Purchases, "purchase date wins over creation date")
	assertDec(t, "30", periods[1].Sales)
	assertDec(t, "20", periods[1].Profit)

	assertDec(t, "0", periods[2].Sales)
	assertDec(t, "0", periods[2].Purchases)
}
