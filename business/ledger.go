/*
ledger.go - The Ledger aggregate

PURPOSE:
  Owns every collection of one shop (purchases, sales, debts, payments,
  products, clients, settings, audit trail) and is the only writer. Each
  method is one user action: it validates, computes the new state from the
  pure functions in this package, swaps it in, and persists the touched
  keys.

CONCURRENCY:
  A single mutex serializes all methods. The stock check and the append of
  a sale happen under the same lock, so two concurrent sales cannot both
  pass a check that only one of them fits.

PERSISTENCE:
  After the in-memory state is updated the touched keys are written in one
  batch. If the write fails the method returns a *generic.PersistenceError
  but the in-memory state keeps the change; callers should warn the user
  their data may not be saved. The next successful write of the same keys
  catches the store up.

CLIENT DEBT:
  With DebtFromLedger (default) Client.TotalDebt is projected from the Debt
  rows after every change, so payments are reflected. With DebtFromSales it
  is recomputed from sale history and payments only reduce it until the
  next recompute.

SEE ALSO:
  - inventory.go, clients.go, debt.go: The functions applied here
  - api/handlers.go: HTTP surface over these methods
*/
package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/generic"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the policy choices of a ledger.
type Config struct {
	Overpayment OverpaymentPolicy
	ClientDebt  DebtSource
	Thresholds  Thresholds
	// UserID is stamped on audit entries.
	UserID string
}

// DefaultConfig clamps overpayments and projects client debt from the
// debt ledger.
func DefaultConfig() Config {
	return Config{
		Overpayment: OverpaymentClamp,
		ClientDebt:  DebtFromLedger,
		Thresholds:  DefaultThresholds(),
		UserID:      "owner",
	}
}

// Options are the collaborators of a ledger. Zero values get defaults.
type Options struct {
	Config    Config
	Clock     generic.Clock
	Logger    *zap.Logger
	AuditSink AuditSink
}

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	mu    sync.Mutex
	store generic.Store
	clock generic.Clock
	log   *zap.Logger
	cfg   Config
	sink  AuditSink

	business  BusinessData
	purchases []Purchase
	sales     []Sale
	debts     []Debt
	products  []Product
	clients   []Client
	payments  []DebtPayment
	audit     []AuditEntry
}

// Open loads a ledger from store. Missing keys start empty.
func Open(ctx context.Context, store generic.Store, opts Options) (*Ledger, error) {
	l := &Ledger{
		store: store,
		clock: opts.Clock,
		log:   opts.Logger,
		cfg:   opts.Config,
		sink:  opts.AuditSink,
	}
	if l.clock == nil {
		l.clock = generic.SystemClock{}
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	def := DefaultConfig()
	if !l.cfg.Overpayment.Valid() {
		l.cfg.Overpayment = def.Overpayment
	}
	if !l.cfg.ClientDebt.Valid() {
		l.cfg.ClientDebt = def.ClientDebt
	}
	if l.cfg.Thresholds == (Thresholds{}) {
		l.cfg.Thresholds = def.Thresholds
	}
	if l.cfg.UserID == "" {
		l.cfg.UserID = def.UserID
	}

	if err := l.load(ctx); err != nil {
		return nil, err
	}
	l.log.Debug("ledger opened",
		zap.Int("purchases", len(l.purchases)),
		zap.Int("sales", len(l.sales)),
		zap.Int("debts", len(l.debts)),
	)
	return l, nil
}

func (l *Ledger) load(ctx context.Context) error {
	l.business = DefaultBusinessData()
	targets := []struct {
		key string
		dst any
	}{
		{KeyBusinessData, &l.business},
		{KeyPurchases, &l.purchases},
		{KeySales, &l.sales},
		{KeyDebts, &l.debts},
		{KeyProducts, &l.products},
		{KeyClients, &l.clients},
		{KeyDebtPayments, &l.payments},
		{KeyAuditLogs, &l.audit},
	}
	for _, t := range targets {
		if _, err := generic.Load(ctx, l.store, t.key, t.dst); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
	}
	return nil
}

// Config returns the ledger's policy settings.
func (l *Ledger) Config() Config {
	return l.cfg
}

// =============================================================================
// PURCHASES
// =============================================================================

// AddPurchase records a stock intake and recomputes inventory.
func (l *Ledger) AddPurchase(ctx context.Context, draft PurchaseDraft) (Purchase, error) {
	purchase, err := NormalizePurchase(draft)
	if err != nil {
		return Purchase{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	purchase.ID = uuid.NewString()
	purchase.Date = l.clock.Now()

	l.purchases = append(slices.Clone(l.purchases), purchase)
	l.products = RecomputeProducts(l.products, l.purchases, l.sales)

	entry := newAuditEntry(purchase.Date, AuditCreate, EntityPurchase, purchase.ID, purchase.ProductName, l.cfg.UserID)
	entry.Metadata = &AuditMetadata{ProductName: purchase.ProductName, Amount: generic.DecimalPtr(purchase.TotalPrice)}
	l.appendAudit(entry)

	return purchase, l.persist(ctx, KeyPurchases, KeyProducts, KeyAuditLogs)
}

// UpdatePurchase replaces the fields of a purchase. The change is refused
// when it would leave a product with more sold than purchased.
func (l *Ledger) UpdatePurchase(ctx context.Context, id string, draft PurchaseDraft) (Purchase, error) {
	updated, err := NormalizePurchase(draft)
	if err != nil {
		return Purchase{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.purchases, func(p Purchase) bool { return p.ID == id })
	if idx < 0 {
		return Purchase{}, &generic.NotFoundError{Kind: "purchase", ID: id}
	}
	old := l.purchases[idx]
	updated.ID = old.ID
	updated.Date = old.Date

	purchases := slices.Clone(l.purchases)
	purchases[idx] = updated
	products, err := l.guardedProducts(purchases, id, "update would leave sales without stock")
	if err != nil {
		return Purchase{}, err
	}

	l.purchases = purchases
	l.products = products

	entry := newAuditEntry(l.clock.Now(), AuditUpdate, EntityPurchase, id, updated.ProductName, l.cfg.UserID)
	entry.Changes = Diff(old, updated)
	entry.Metadata = &AuditMetadata{ProductName: updated.ProductName, Amount: generic.DecimalPtr(updated.TotalPrice)}
	l.appendAudit(entry)

	return updated, l.persist(ctx, KeyPurchases, KeyProducts, KeyAuditLogs)
}

// DeletePurchase removes a purchase unless sales depend on its stock.
func (l *Ledger) DeletePurchase(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.purchases, func(p Purchase) bool { return p.ID == id })
	if idx < 0 {
		return &generic.NotFoundError{Kind: "purchase", ID: id}
	}
	old := l.purchases[idx]

	purchases := slices.Delete(slices.Clone(l.purchases), idx, idx+1)
	products, err := l.guardedProducts(purchases, id, "sales depend on this stock")
	if err != nil {
		return err
	}

	l.purchases = purchases
	l.products = products

	entry := newAuditEntry(l.clock.Now(), AuditDelete, EntityPurchase, id, old.ProductName, l.cfg.UserID)
	entry.Changes = Diff(old, nil)
	l.appendAudit(entry)

	return l.persist(ctx, KeyPurchases, KeyProducts, KeyAuditLogs)
}

// guardedProducts recomputes inventory over a candidate purchase history
// and fails if any product would have sold more than it bought.
func (l *Ledger) guardedProducts(purchases []Purchase, id, reason string) ([]Product, error) {
	products := RecomputeProducts(l.products, purchases, l.sales)
	for _, p := range products {
		if p.TotalSold.GreaterThan(p.TotalPurchased) {
			return nil, &generic.DependentsError{
				Kind:   "purchase",
				ID:     id,
				Reason: fmt.Sprintf("%s: %s would have %s sold of %s purchased", reason, p.Name, p.TotalSold, p.TotalPurchased),
			}
		}
	}
	return products, nil
}

// =============================================================================
// SALES
// =============================================================================

// AddSale admits a sale. Every line is checked against current stock first;
// if any line is short the whole sale is rejected with an
// *generic.InsufficientStockError and nothing changes. An admitted sale
// that leaves money owing accrues onto its client's debt row.
func (l *Ledger) AddSale(ctx context.Context, draft SaleDraft) (Sale, error) {
	sale, err := NormalizeSale(draft)
	if err != nil {
		return Sale{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := CheckStock(l.products, sale); err != nil {
		l.log.Info("sale rejected", zap.String("client", sale.ClientName), zap.Error(err))
		return Sale{}, err
	}

	sale.ID = uuid.NewString()
	sale.Date = l.clock.Now()

	sales := append(slices.Clone(l.sales), sale)
	debts := AccrueDebt(l.debts, sale)

	l.sales = sales
	l.debts = debts
	l.products = RecomputeProducts(l.products, l.purchases, l.sales)
	l.clients = l.deriveClients(l.clients, l.sales, l.debts)

	entry := newAuditEntry(sale.Date, AuditCreate, EntitySale, sale.ID, sale.ClientName, l.cfg.UserID)
	entry.Metadata = &AuditMetadata{ClientName: sale.ClientName, Amount: generic.DecimalPtr(sale.TotalAmount)}
	l.appendAudit(entry)

	return sale, l.persist(ctx, KeySales, KeyProducts, KeyClients, KeyDebts, KeyAuditLogs)
}

// UpdateSale applies an edit to a sale. For the same client the debt row
// moves by the change in the sale's debt amount, keeping payments already
// applied; an edit that would take the row below zero is refused unless
// the ledger keeps credits. Moving the sale to another client reverses it
// on the old row and accrues it on the new one, and is refused once the
// old row has received payments.
func (l *Ledger) UpdateSale(ctx context.Context, id string, patch SalePatch) (Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.sales, func(s Sale) bool { return s.ID == id })
	if idx < 0 {
		return Sale{}, &generic.NotFoundError{Kind: "sale", ID: id}
	}
	old := l.sales[idx]
	updated, err := ApplyPatch(old, patch)
	if err != nil {
		return Sale{}, err
	}

	var debts []Debt
	if updated.ClientName == old.ClientName {
		var delta decimal.Decimal
		debts, delta = AdjustDebt(l.debts, old, updated)
		i := slices.IndexFunc(debts, func(d Debt) bool { return d.ClientName == updated.ClientName })
		if delta.IsNegative() && i >= 0 && debts[i].TotalDebt.IsNegative() && l.cfg.Overpayment != OverpaymentCredit {
			return Sale{}, &generic.DependentsError{Kind: "sale", ID: id, Reason: "payments already received exceed the edited debt"}
		}
	} else {
		if l.saleHasPayments(old.ID) {
			return Sale{}, &generic.DependentsError{Kind: "sale", ID: id, Reason: "payments were recorded against its client's debt"}
		}
		debts = AccrueDebt(ReverseDebt(l.debts, old), updated)
	}

	sales := slices.Clone(l.sales)
	sales[idx] = updated

	l.sales = sales
	l.debts = debts
	l.products = RecomputeProducts(l.products, l.purchases, l.sales)
	l.clients = l.deriveClients(l.clients, l.sales, l.debts)

	entry := newAuditEntry(l.clock.Now(), AuditUpdate, EntitySale, id, updated.ClientName, l.cfg.UserID)
	entry.Changes = Diff(old, updated)
	entry.Metadata = &AuditMetadata{ClientName: updated.ClientName, Amount: generic.DecimalPtr(updated.TotalAmount)}
	l.appendAudit(entry)

	return updated, l.persist(ctx, KeySales, KeyProducts, KeyClients, KeyDebts, KeyAuditLogs)
}

// DeleteSale removes a sale and returns its stock. A sale whose debt row
// has received payments cannot be deleted.
func (l *Ledger) DeleteSale(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.sales, func(s Sale) bool { return s.ID == id })
	if idx < 0 {
		return &generic.NotFoundError{Kind: "sale", ID: id}
	}
	old := l.sales[idx]
	if l.saleHasPayments(old.ID) {
		return &generic.DependentsError{Kind: "sale", ID: id, Reason: "payments were recorded against its debt"}
	}

	l.sales = slices.Delete(slices.Clone(l.sales), idx, idx+1)
	l.debts = ReverseDebt(l.debts, old)
	l.products = RecomputeProducts(l.products, l.purchases, l.sales)
	l.clients = l.deriveClients(l.clients, l.sales, l.debts)

	entry := newAuditEntry(l.clock.Now(), AuditDelete, EntitySale, id, old.ClientName, l.cfg.UserID)
	entry.Changes = Diff(old, nil)
	entry.Metadata = &AuditMetadata{ClientName: old.ClientName, Amount: generic.DecimalPtr(old.TotalAmount)}
	l.appendAudit(entry)

	return l.persist(ctx, KeySales, KeyProducts, KeyClients, KeyDebts, KeyAuditLogs)
}

// SaleHasPayments reports whether the debt row carrying the sale has
// received any payment.
func (l *Ledger) SaleHasPayments(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saleHasPayments(id)
}

func (l *Ledger) saleHasPayments(id string) bool {
	debt, ok := DebtForSale(l.debts, id)
	return ok && HasPayments(l.payments, debt.ID)
}

// =============================================================================
// PAYMENTS
// =============================================================================

// RecordPayment collects amount against a debt row. The amount must be
// positive; what an amount above the balance does depends on the
// configured OverpaymentPolicy.
func (l *Ledger) RecordPayment(ctx context.Context, debtID string, amount decimal.Decimal, method string) (DebtPayment, error) {
	if !amount.IsPositive() {
		return DebtPayment{}, &generic.ValidationError{Field: "amountPaid", Message: "must be greater than zero"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	outcome, err := RecordPayment(l.debts, l.clients, PaymentRequest{
		DebtID:        debtID,
		Amount:        amount,
		PaymentMethod: method,
		At:            l.clock.Now(),
	}, l.cfg.Overpayment)
	if err != nil {
		return DebtPayment{}, err
	}

	l.debts = outcome.Debts
	l.payments = append(slices.Clone(l.payments), outcome.Payment)
	if l.cfg.ClientDebt == DebtFromLedger {
		l.clients = ProjectClientDebt(outcome.Clients, l.debts)
	} else {
		l.clients = outcome.Clients
	}

	p := outcome.Payment
	entry := newAuditEntry(p.Date, AuditPayment, EntityDebt, p.DebtID, p.ClientName, l.cfg.UserID)
	entry.Changes = []FieldChange{{Field: "totalDebt", OldValue: p.PreviousDebt, NewValue: p.NewDebt}}
	entry.Metadata = &AuditMetadata{ClientName: p.ClientName, Amount: generic.DecimalPtr(p.AmountPaid), PaymentMethod: p.PaymentMethod}
	l.appendAudit(entry)

	l.log.Info("payment recorded",
		zap.String("client", p.ClientName),
		zap.String("amount", p.AmountPaid.String()),
		zap.String("balance", p.NewDebt.String()),
	)
	return p, l.persist(ctx, KeyDebtPayments, KeyDebts, KeyClients, KeyAuditLogs)
}

// =============================================================================
// SETTINGS
// =============================================================================

// Business returns the shop settings.
func (l *Ledger) Business() BusinessData {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.business
}

// UpdateBusiness replaces the shop settings. An empty currency keeps the
// default.
func (l *Ledger) UpdateBusiness(ctx context.Context, data BusinessData) (BusinessData, error) {
	if data.Currency == "" {
		data.Currency = DefaultBusinessData().Currency
	}
	if data.CurrencySymbol == "" {
		data.CurrencySymbol = generic.DefaultCurrencySymbol
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.business = data
	return data, l.persist(ctx, KeyBusinessData)
}

// Authenticate checks a login attempt against the stored password.
func (l *Ledger) Authenticate(password string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.business.CheckPassword(password)
}

// =============================================================================
// READS
// =============================================================================

func (l *Ledger) Purchases() []Purchase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.purchases)
}

func (l *Ledger) Sales() []Sale {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.sales)
}

func (l *Ledger) Products() []Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.products)
}

func (l *Ledger) Clients() []Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.clients)
}

func (l *Ledger) Debts() []Debt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneDebts(l.debts)
}

func (l *Ledger) Payments() []DebtPayment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.payments)
}

// AuditLog returns all audit entries, newest first.
func (l *Ledger) AuditLog() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.audit)
}

// EntityAudit returns the audit entries of one record, newest first.
func (l *Ledger) EntityAudit(entityID string) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return FilterAudit(l.audit, entityID)
}

// Purchase looks up a purchase by id.
func (l *Ledger) Purchase(id string) (Purchase, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.purchases {
		if p.ID == id {
			return p, nil
		}
	}
	return Purchase{}, &generic.NotFoundError{Kind: "purchase", ID: id}
}

// Sale looks up a sale by id.
func (l *Ledger) Sale(id string) (Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return Sale{}, &generic.NotFoundError{Kind: "sale", ID: id}
}

// Debt looks up a debt row by id.
func (l *Ledger) Debt(id string) (Debt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := FindDebt(l.debts, id); ok {
		d.SalesIDs = slices.Clone(d.SalesIDs)
		return d, nil
	}
	return Debt{}, &generic.NotFoundError{Kind: "debt", ID: id}
}

// =============================================================================
// ALERTS AND REPORTS
// =============================================================================

// Alerts scans for overdue and due-soon payments at the ledger clock's now.
func (l *Ledger) Alerts() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	th := l.cfg.Thresholds
	th.CurrencySymbol = l.business.Symbol()
	return ScanAlerts(l.debts, l.sales, l.clock.Now(), th)
}

// Notifications returns the alert messages.
func (l *Ledger) Notifications() []string {
	return Messages(l.Alerts())
}

// Summary computes the headline report figures.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summarize(l.purchases, l.sales, l.debts, l.products)
}

// PeriodBreakdown computes monthly figures over [from, to].
func (l *Ledger) PeriodBreakdown(from, to generic.TimePoint) []PeriodFigures {
	l.mu.Lock()
	defer l.mu.Unlock()
	return PeriodBreakdown(l.purchases, l.sales, from, to)
}

// Now returns the ledger clock's current instant.
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

// Export returns the whole ledger as a backup document.
func (l *Ledger) Export() Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Document{
		BusinessData: l.business,
		Purchases:    nonNil(l.purchases),
		Sales:        nonNil(l.sales),
		Debts:        nonNil(cloneDebts(l.debts)),
		Products:     nonNil(l.products),
		Clients:      nonNil(l.clients),
		DebtPayments: slices.Clone(l.payments),
		ExportDate:   l.clock.Now(),
		AppVersion:   AppVersion,
	}
}

// Import replaces the ledger with the contents of a backup file. The file
// is validated before anything changes; all keys are written in one batch.
func (l *Ledger) Import(ctx context.Context, data []byte) error {
	doc, hasPayments, err := ParseDocument(data)
	if err != nil {
		return err
	}
	return l.ImportDocument(ctx, doc, hasPayments)
}

// ImportDocument replaces the ledger with doc. Debt payments are replaced
// only when replacePayments is set. Derived views are recomputed from the
// imported history, seeded with the imported views so ids are kept.
func (l *Ledger) ImportDocument(ctx context.Context, doc Document, replacePayments bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.business = doc.BusinessData
	l.purchases = slices.Clone(doc.Purchases)
	l.sales = slices.Clone(doc.Sales)
	l.debts = cloneDebts(doc.Debts)
	if replacePayments {
		l.payments = slices.Clone(doc.DebtPayments)
	}
	l.products = RecomputeProducts(doc.Products, l.purchases, l.sales)
	l.clients = l.deriveClients(doc.Clients, l.sales, l.debts)

	entry := newAuditEntry(l.clock.Now(), AuditImport, EntityLedger, "", doc.BusinessData.BusinessName, l.cfg.UserID)
	entry.Changes = []FieldChange{
		{Field: "purchases", NewValue: len(l.purchases)},
		{Field: "sales", NewValue: len(l.sales)},
		{Field: "debts", NewValue: len(l.debts)},
	}
	l.appendAudit(entry)

	l.log.Info("ledger imported",
		zap.Int("purchases", len(l.purchases)),
		zap.Int("sales", len(l.sales)),
		zap.Time("exportDate", doc.ExportDate),
	)
	return l.persist(ctx, AllKeys...)
}

// Reset clears every collection and the settings.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.business = DefaultBusinessData()
	l.purchases, l.sales, l.debts = nil, nil, nil
	l.products, l.clients, l.payments, l.audit = nil, nil, nil, nil

	l.log.Warn("ledger reset")
	return l.persist(ctx, AllKeys...)
}

// =============================================================================
// INTERNALS
// =============================================================================

// deriveClients recomputes the client view from seeds and applies the
// configured debt source.
func (l *Ledger) deriveClients(seeds []Client, sales []Sale, debts []Debt) []Client {
	clients := RecomputeClients(seeds, sales)
	if l.cfg.ClientDebt == DebtFromLedger {
		clients = ProjectClientDebt(clients, debts)
	}
	return clients
}

func (l *Ledger) appendAudit(entry AuditEntry) {
	l.audit = append([]AuditEntry{entry}, l.audit...)
	if l.sink == nil {
		return
	}
	if err := l.sink.RecordAudit(entry); err != nil {
		l.log.Warn("audit sink failed", zap.String("entity", entry.EntityID), zap.Error(err))
	}
}

// persist writes the named keys in one batch. Must be called with mu held.
func (l *Ledger) persist(ctx context.Context, keys ...string) error {
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		raw, err := json.Marshal(l.valueOf(key))
		if err != nil {
			return l.persistFailed(keys, fmt.Errorf("encode %s: %w", key, err))
		}
		entries[key] = raw
	}
	if err := generic.SetAll(ctx, l.store, entries); err != nil {
		return l.persistFailed(keys, err)
	}
	return nil
}

func (l *Ledger) persistFailed(keys []string, err error) error {
	l.log.Error("persist ledger state", zap.Strings("keys", keys), zap.Error(err))
	return &generic.PersistenceError{Keys: keys, Err: err}
}

func (l *Ledger) valueOf(key string) any {
	switch key {
	case KeyBusinessData:
		return l.business
	case KeyPurchases:
		return nonNil(l.purchases)
	case KeySales:
		return nonNil(l.sales)
	case KeyDebts:
		return nonNil(l.debts)
	case KeyProducts:
		return nonNil(l.products)
	case KeyClients:
		return nonNil(l.clients)
	case KeyDebtPayments:
		return nonNil(l.payments)
	case KeyAuditLogs:
		return nonNil(l.audit)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// IsPersistenceError reports whether err only means the change was not
// saved.
func IsPersistenceError(err error) bool {
	var pe *generic.PersistenceError
	return errors.As(err, &pe)
}
