// Package report renders ledger reports as xlsx workbooks.
//
// A workbook has four sheets: Summary, Periods (one row per month of the
// requested range), Debts and Products. Amounts are written as numbers so
// the owner can keep computing in the spreadsheet.
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// Sheet names, in workbook order.
const (
	SheetSummary  = "Summary"
	SheetPeriods  = "Periods"
	SheetDebts    = "Debts"
	SheetProducts = "Products"
)

// Source is what a workbook is built from. *business.Ledger satisfies it.
type Source interface {
	Business() business.BusinessData
	Summary() business.Summary
	PeriodBreakdown(from, to generic.TimePoint) []business.PeriodFigures
	Debts() []business.Debt
	Products() []business.Product
}

// Workbook builds the report for [from, to]. The caller closes the file.
func Workbook(src Source, from, to generic.TimePoint) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetPeriods, SheetDebts, SheetProducts} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &writer{f: f, bold: bold}
	w.summary(src.Business(), src.Summary(), from, to)
	w.periods(src.PeriodBreakdown(from, to))
	w.debts(src.Debts())
	w.products(src.Products())
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write builds the report and streams it to out.
func Write(out io.Writer, src Source, from, to generic.TimePoint) error {
	f, err := Workbook(src, from, to)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writer keeps the first error so sheet builders stay linear.
type writer struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *writer) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *writer) header(sheet string, titles ...any) {
	w.row(sheet, 1, titles...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheet, "A1", last, w.bold)
	if w.err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(titles))
		w.err = w.f.SetColWidth(sheet, "A", lastCol, 18)
	}
}

func (w *writer) summary(b business.BusinessData, s business.Summary, from, to generic.TimePoint) {
	w.header(SheetSummary, "Figure", "Value")
	rows := [][]any{
		{"Business", b.BusinessName},
		{"Currency", b.Currency},
		{"Period", from.String() + " - " + to.String()},
		{"Total purchases", num(s.TotalPurchases)},
		{"Total sales", num(s.TotalSales)},
		{"Profit", num(s.Profit)},
		{"Profit margin %", num(s.ProfitMargin)},
		{"Outstanding debt", num(s.TotalDebts)},
		{"Clients with debt", s.ClientsWithDebt},
		{"Products", s.ProductCount},
		{"Stock value", num(s.StockValue)},
		{"Low stock products", len(s.LowStock)},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+2, r...)
	}
}

func (w *writer) periods(figures []business.PeriodFigures) {
	w.header(SheetPeriods, "Period", "Start", "End", "Sales", "Purchases", "Profit")
	for i, p := range figures {
		w.row(SheetPeriods, i+2, p.Period, p.Start.String(), p.End.String(), num(p.Sales), num(p.Purchases), num(p.Profit))
	}
}

func (w *writer) debts(debts []business.Debt) {
	w.header(SheetDebts, "Client", "Outstanding", "Sales")
	for i, d := range debts {
		w.row(SheetDebts, i+2, d.ClientName, num(d.TotalDebt), len(d.SalesIDs))
	}
}

func (w *writer) products(products []business.Product) {
	w.header(SheetProducts, "Product", "Stock", "Purchased", "Sold", "Last price", "Average price", "Sale price")
	for i, p := range products {
		w.row(SheetProducts, i+2, p.Name, num(p.CurrentStock), num(p.TotalPurchased), num(p.TotalSold),
			num(p.LastPurchasePrice), num(p.AveragePurchasePrice), num(p.InitialSalePrice))
	}
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
