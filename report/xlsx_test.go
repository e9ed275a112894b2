package report_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
	"github.com/bizmob/ledger/report"
)

func TestWrite(t *testing.T) {
	ctx := context.Background()
	clock := generic.NewFixedClock(time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC))
	l, err := business.Open(ctx, store.NewMemory(), business.Options{Clock: clock})
	require.NoError(t, err)

	// GIVEN: a purchase in January and a debt sale in February
	jan := generic.NewTimePoint(2025, time.January, 5)
	_, err = l.AddPurchase(ctx, business.PurchaseDraft{PurchaseDate: &jan, ProductName: "Rice", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)})
	require.NoError(t, err)
	due := generic.NewTimePoint(2025, time.March, 1)
	_, err = l.AddSale(ctx, business.SaleDraft{
		ClientName:          "Acme",
		Items:               []business.SaleItemDraft{{ProductName: "Rice", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(8)}},
		PaymentStatus:       business.StatusDebt,
		ExpectedPaymentDate: &due,
	})
	require.NoError(t, err)

	// WHEN: the workbook is written for Jan-Feb
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, l, jan, generic.NewTimePoint(2025, time.February, 28)))

	// THEN: it opens with four sheets and the expected figures
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetSummary, report.SheetPeriods, report.SheetDebts, report.SheetProducts}, f.GetSheetList())

	periods, err := f.GetRows(report.SheetPeriods)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, []string{"2025-01", "2025-01-01", "2025-01-31", "0", "50", "-50"}, periods[1])
	assert.Equal(t, "32", periods[2][3])

	debts, err := f.GetRows(report.SheetDebts)
	require.NoError(t, err)
	require.Len(t, debts, 2)
	assert.Equal(t, []string{"Acme", "32", "1"}, debts[1])

	stock, err := f.GetCellValue(report.SheetProducts, "B2")
	require.NoError(t, err)
	assert.Equal(t, "6", stock)
}
