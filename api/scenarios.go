/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the ledger with realistic
	shop data for demos. Each scenario records purchases, sales and
	payments through the ledger so stock, debts and clients are derived
	exactly as they would be from the entry forms.

AVAILABLE SCENARIOS:

	rice:      Two rice purchases at different prices, then a cash sale
	acme-debt: A sale on credit to Acme and a partial repayment
	overdue:   Debts at every alert threshold for the notification panel

HOW SCENARIOS WORK:
 1. Reset the ledger (clear all data)
 2. Record purchases to stock the shop
 3. Record sales, dated relative to the ledger clock
 4. Optionally record payments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "acme-debt"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add it to the loaders map

NOTE:

	Scenarios reset the ledger. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Other handlers
  - business/ledger.go: The operations the loaders call
*/
package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "rice",
		Name:        "Rice Stock",
		Description: "Two purchases at $5 and $7 average to $6; selling 5 leaves 15 in stock",
	},
	{
		ID:          "acme-debt",
		Name:        "Acme Debt",
		Description: "A $100 sale on credit to Acme, then a $40 cash repayment",
	},
	{
		ID:          "overdue",
		Name:        "Overdue Debts",
		Description: "Clients owing at each alert threshold: overdue, follow-up, due soon, late",
	},
}

func (h *Handler) loaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"rice":      h.loadRiceScenario,
		"acme-debt": h.loadAcmeDebtScenario,
		"overdue":   h.loadOverdueScenario,
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the ledger and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := h.loaders()[req.ScenarioID]
	if !ok {
		h.fail(w, r, &generic.ValidationError{Field: "scenario_id", Message: "unknown scenario " + req.ScenarioID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := h.Ledger.Reset(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := load(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetLedger clears every collection and the settings.
// POST /api/scenarios/reset
func (h *Handler) ResetLedger(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Ledger.Reset(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadRiceScenario(ctx context.Context) error {
	today := generic.TimePointOf(h.Ledger.Now())

	// 10 @ $5 then 10 @ $7: average purchase price $6
	purchases := []business.PurchaseDraft{
		{PurchaseDate: dayRef(today.AddDays(-20)), SupplierName: "Grain Co", ProductName: "Rice",
			Quantity: dec(10), UnitPrice: dec(5), InitialSalePrice: dec(6)},
		{PurchaseDate: dayRef(today.AddDays(-10)), SupplierName: "Grain Co", ProductName: "Rice",
			Quantity: dec(10), UnitPrice: dec(7)},
	}
	if err := h.addPurchases(ctx, purchases); err != nil {
		return err
	}

	_, err := h.Ledger.AddSale(ctx, business.SaleDraft{
		SaleDate:      dayRef(today.AddDays(-2)),
		ClientName:    "Walk-in",
		Items:         []business.SaleItemDraft{{ProductName: "Rice", Quantity: dec(5), UnitPrice: dec(8)}},
		PaymentStatus: business.StatusPaid,
	})
	return err
}

func (h *Handler) loadAcmeDebtScenario(ctx context.Context) error {
	today := generic.TimePointOf(h.Ledger.Now())

	if err := h.addPurchases(ctx, []business.PurchaseDraft{
		{PurchaseDate: dayRef(today.AddDays(-7)), SupplierName: "Hardware Depot", ProductName: "Widget",
			Quantity: dec(20), UnitPrice: dec(6), InitialSalePrice: dec(10)},
	}); err != nil {
		return err
	}

	if _, err := h.Ledger.AddSale(ctx, business.SaleDraft{
		SaleDate:            dayRef(today.AddDays(-5)),
		ClientName:          "Acme",
		Items:               []business.SaleItemDraft{{ProductName: "Widget", Quantity: dec(10), UnitPrice: dec(10)}},
		PaymentStatus:       business.StatusDebt,
		ExpectedPaymentDate: dayRef(today.AddDays(25)),
	}); err != nil {
		return err
	}

	_, err := h.Ledger.RecordPayment(ctx, business.DebtID("Acme"), dec(40), "cash")
	return err
}

func (h *Handler) loadOverdueScenario(ctx context.Context) error {
	today := generic.TimePointOf(h.Ledger.Now())

	if err := h.addPurchases(ctx, []business.PurchaseDraft{
		{PurchaseDate: dayRef(today.AddDays(-60)), SupplierName: "Textile House", ProductName: "Fabric",
			Quantity: dec(100), UnitPrice: dec(4), InitialSalePrice: dec(7)},
		{PurchaseDate: dayRef(today.AddDays(-60)), SupplierName: "Textile House", ProductName: "Thread",
			Quantity: dec(200), UnitPrice: dec(1), InitialSalePrice: dec(2)},
	}); err != nil {
		return err
	}

	// Promised dates on the two debts are beyond the due-soon window so
	// only the age rule fires for them.
	sales := []business.SaleDraft{
		{ // 31 days on credit: overdue
			SaleDate:            dayRef(today.AddDays(-31)),
			ClientName:          "Acme",
			Items:               []business.SaleItemDraft{{ProductName: "Fabric", Quantity: dec(10), UnitPrice: dec(7)}},
			PaymentStatus:       business.StatusDebt,
			ExpectedPaymentDate: dayRef(today.AddDays(10)),
		},
		{ // 20 days on credit: follow-up
			SaleDate:            dayRef(today.AddDays(-20)),
			ClientName:          "Baobab Tailors",
			Items:               []business.SaleItemDraft{{ProductName: "Thread", Quantity: dec(30), UnitPrice: dec(2)}},
			PaymentStatus:       business.StatusDebt,
			ExpectedPaymentDate: dayRef(today.AddDays(10)),
		},
		{ // promised in two days: due soon
			SaleDate:            dayRef(today.AddDays(-3)),
			ClientName:          "Chez Fatou",
			Items:               []business.SaleItemDraft{{ProductName: "Fabric", Quantity: dec(5), UnitPrice: dec(7)}},
			PaymentStatus:       business.StatusPartial,
			AmountPaid:          dec(15),
			ExpectedPaymentDate: dayRef(today.AddDays(2)),
		},
		{ // promise missed three days ago: payment overdue
			SaleDate:            dayRef(today.AddDays(-12)),
			ClientName:          "Diallo & Sons",
			Items:               []business.SaleItemDraft{{ProductName: "Thread", Quantity: dec(50), UnitPrice: dec(2)}},
			PaymentStatus:       business.StatusPartial,
			AmountPaid:          dec(40),
			ExpectedPaymentDate: dayRef(today.AddDays(-3)),
		},
	}
	for _, s := range sales {
		if _, err := h.Ledger.AddSale(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) addPurchases(ctx context.Context, drafts []business.PurchaseDraft) error {
	for _, d := range drafts {
		if _, err := h.Ledger.AddPurchase(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func dayRef(tp generic.TimePoint) *generic.TimePoint { return &tp }
