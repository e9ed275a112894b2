package business

import (
	"github.com/shopspring/decimal"

	"github.com/bizmob/ledger/generic"
)

// =============================================================================
// REPORTS
// =============================================================================

// LowStockThreshold is the stock level at or below which a product is
// listed as low.
var LowStockThreshold = decimal.NewFromInt(10)

// Summary is the headline figures of the whole history.
type Summary struct {
	TotalPurchases  decimal.Decimal `json:"totalPurchases"`
	TotalSales      decimal.Decimal `json:"totalSales"`
	TotalDebts      decimal.Decimal `json:"totalDebts"`
	Profit          decimal.Decimal `json:"profit"`
	ProfitMargin    decimal.Decimal `json:"profitMargin"` // percent of sales, zero without sales
	ClientsWithDebt int             `json:"clientsWithDebt"`
	ProductCount    int             `json:"productCount"`
	StockValue      decimal.Decimal `json:"stockValue"`
	LowStock        []Product       `json:"lowStock"`
}

// PeriodFigures is the activity of one reporting period.
type PeriodFigures struct {
	Period    string            `json:"period"`
	Start     generic.TimePoint `json:"start"`
	End       generic.TimePoint `json:"end"`
	Sales     decimal.Decimal   `json:"sales"`
	Purchases decimal.Decimal   `json:"purchases"`
	Profit    decimal.Decimal   `json:"profit"`
}

// Summarize computes the headline figures. Profit is sales minus purchases,
// as a cash view; it does not match cost of goods sold.
func Summarize(purchases []Purchase, sales []Sale, debts []Debt, products []Product) Summary {
	s := Summary{
		TotalPurchases: decimal.Zero,
		TotalSales:     decimal.Zero,
		ProfitMargin:   decimal.Zero,
		StockValue:     decimal.Zero,
		ProductCount:   len(products),
		LowStock:       LowStock(products, LowStockThreshold),
	}
	for _, p := range purchases {
		s.TotalPurchases = s.TotalPurchases.Add(p.TotalPrice)
	}
	for _, sale := range sales {
		s.TotalSales = s.TotalSales.Add(sale.TotalAmount)
	}
	for _, d := range debts {
		s.TotalDebts = s.TotalDebts.Add(d.TotalDebt)
		if d.TotalDebt.IsPositive() {
			s.ClientsWithDebt++
		}
	}
	for _, p := range products {
		s.StockValue = s.StockValue.Add(p.StockValue())
	}
	s.Profit = s.TotalSales.Sub(s.TotalPurchases)
	if s.TotalSales.IsPositive() {
		s.ProfitMargin = s.Profit.Div(s.TotalSales).Mul(decimal.NewFromInt(100)).Round(1)
	}
	if s.LowStock == nil {
		s.LowStock = []Product{}
	}
	return s
}

// PeriodBreakdown buckets purchases and sales by calendar month over
// [from, to], using each record's effective date.
func PeriodBreakdown(purchases []Purchase, sales []Sale, from, to generic.TimePoint) []PeriodFigures {
	months := generic.Months(from, to)
	out := make([]PeriodFigures, len(months))
	for i, m := range months {
		out[i] = PeriodFigures{
			Period:    m.Label(),
			Start:     m.Start,
			End:       m.End,
			Sales:     decimal.Zero,
			Purchases: decimal.Zero,
		}
	}

	bucket := func(at generic.TimePoint) int {
		if at.Before(from) || at.After(to) {
			return -1
		}
		for i, m := range months {
			if m.Contains(at) {
				return i
			}
		}
		return -1
	}

	for _, sale := range sales {
		if i := bucket(generic.TimePointOf(sale.EffectiveDate())); i >= 0 {
			out[i].Sales = out[i].Sales.Add(sale.TotalAmount)
		}
	}
	for _, p := range purchases {
		if i := bucket(generic.TimePointOf(p.EffectiveDate())); i >= 0 {
			out[i].Purchases = out[i].Purchases.Add(p.TotalPrice)
		}
	}
	for i := range out {
		out[i].Profit = out[i].Sales.Sub(out[i].Purchases)
	}
	return out
}
