/*
handlers.go - HTTP API handlers for the shop ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to business.Ledger.

ENDPOINTS:
  Settings:
    GET    /api/business               Shop settings (no password)
    PUT    /api/business               Update settings
    POST   /api/login                  Check the password

  History:
    GET    /api/purchases              List purchases
    POST   /api/purchases              Record a purchase
    PUT    /api/purchases/{id}         Edit a purchase
    DELETE /api/purchases/{id}         Delete a purchase
    GET    /api/sales                  List sales
    POST   /api/sales                  Admit a sale (stock checked)
    PUT    /api/sales/{id}             Edit a sale
    DELETE /api/sales/{id}             Delete a sale

  Views:
    GET    /api/products               Inventory
    GET    /api/clients                Clients
    GET    /api/debts                  Debt ledger
    POST   /api/debts/{id}/payments    Record a payment
    GET    /api/payments               Payment history

  Reports:
    GET    /api/notifications          Alert messages
    GET    /api/alerts                 Structured alerts
    GET    /api/reports/summary        Headline figures
    GET    /api/reports/periods        Monthly breakdown (?from=&to=)
    GET    /api/reports/export.xlsx    Workbook download
    GET    /api/audit                  Audit trail (?entityId=&entityType=&action=&limit=)

  Backup:
    GET    /api/export                 Export document download
    POST   /api/import                 Replace the ledger with a document

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Insufficient stock, dependent records
  - 422: Overpayment under the reject policy, invalid import document
  - 500: Persistence and internal errors

SECURITY NOTE:
  Single-owner deployment. /api/login only checks the stored password;
  there are no sessions.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/factory"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/report"
)

// maxBodyBytes caps request bodies. Import documents are the largest.
const maxBodyBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// AuditQuerier answers audit queries from a relational copy of the trail.
type AuditQuerier interface {
	ListAudit(ctx context.Context, q business.AuditQuery) ([]business.AuditEntry, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *business.Ledger
	Forms  *factory.FormFactory
	// Audit is optional. Without it the audit endpoint filters the
	// ledger's own trail.
	Audit AuditQuerier

	log *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over ledger.
func NewHandler(ledger *business.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Ledger: ledger,
		Forms:  factory.NewFormFactory(),
		log:    log,
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetBusiness returns the shop settings.
func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toBusinessDTO(h.Ledger.Business()))
}

// UpdateBusiness replaces the shop settings and marks the shop set up.
func (h *Handler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	var req UpdateBusinessRequest
	if !h.decode(w, r, &req) {
		return
	}

	current := h.Ledger.Business()
	data := business.BusinessData{
		BusinessName:   req.BusinessName,
		UserName:       req.UserName,
		Password:       req.Password,
		IsSetup:        true,
		Currency:       req.Currency,
		CurrencySymbol: req.CurrencySymbol,
	}
	if data.Password == "" {
		data.Password = current.Password
	}

	updated, err := h.Ledger.UpdateBusiness(r.Context(), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessDTO(updated))
}

// Login checks the password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.Ledger.Authenticate(req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid password", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessDTO(h.Ledger.Business()))
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// ListPurchases returns all purchases, oldest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Purchases()))
}

// CreatePurchase records a purchase.
// POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	draft, err := h.Forms.ParsePurchase(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.Ledger.AddPurchase(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// UpdatePurchase edits a purchase.
// PUT /api/purchases/{id}
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	draft, err := h.Forms.ParsePurchase(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.Ledger.UpdatePurchase(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// DeletePurchase deletes a purchase.
// DELETE /api/purchases/{id}
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeletePurchase(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns all sales, oldest first.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Sales()))
}

// CreateSale admits a sale. A short line rejects the whole sale with 409.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	draft, err := h.Forms.ParseSale(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.Ledger.AddSale(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// UpdateSale edits a sale.
// PUT /api/sales/{id}
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	patch, err := h.Forms.ParseSalePatch(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.Ledger.UpdateSale(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// DeleteSale deletes a sale.
// DELETE /api/sales/{id}
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Products()))
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Clients()))
}

func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Debts()))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Ledger.Payments()))
}

// RecordPayment collects money against a debt row.
// POST /api/debts/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	amount, method, err := h.Forms.ParsePayment(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	debtID := chi.URLParam(r, "id")
	payment, err := h.Ledger.RecordPayment(r.Context(), debtID, amount, method)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	debt, err := h.Ledger.Debt(debtID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentResponse{Payment: payment, Debt: debt})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListNotifications returns the alert messages.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	msgs := h.Ledger.Notifications()
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: nonNil(msgs), Count: len(msgs)})
}

// ListAlerts returns structured alerts, optionally filtered by ?kind=.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.Ledger.Alerts()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := alerts[:0]
		for _, a := range alerts {
			if string(a.Kind) == kind {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	writeJSON(w, http.StatusOK, nonNil(alerts))
}

// GetSummary returns the headline figures.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Summary())
}

// GetPeriods returns monthly figures.
// GET /api/reports/periods?from=2025-01-01&to=2025-06-30
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.reportRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PeriodsResponse{
		From:    from.String(),
		To:      to.String(),
		Periods: h.Ledger.PeriodBreakdown(from, to),
	})
}

// ExportWorkbook streams the xlsx report.
// GET /api/reports/export.xlsx
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.reportRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := report.Workbook(h.Ledger, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bizmob-report-%s.xlsx"`, to.String()))
	w.WriteHeader(http.StatusOK)
	if _, err := f.WriteTo(w); err != nil {
		h.log.Warn("workbook write aborted", zap.Error(err))
	}
}

// ListAudit returns audit entries, newest first.
// GET /api/audit?entityId=&entityType=&action=&limit=
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := business.AuditQuery{
		EntityID:   q.Get("entityId"),
		EntityType: business.EntityType(q.Get("entityType")),
		Action:     business.AuditAction(q.Get("action")),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(w, r, &generic.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		query.Limit = n
	}

	if h.Audit != nil {
		entries, err := h.Audit.ListAudit(r.Context(), query)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(entries))
		return
	}

	writeJSON(w, http.StatusOK, business.QueryAudit(h.Ledger.AuditLog(), query))
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// Export downloads the whole ledger.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc := h.Ledger.Export()
	data, err := doc.Encode()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="bizmob-backup-%s.json"`, doc.ExportDate.UTC().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces the ledger with the posted document.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}
	if err := h.Ledger.Import(r.Context(), body); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("ledger imported over http", zap.Int("bytes", len(body)))
	writeJSON(w, http.StatusOK, ImportResponse{
		Purchases: len(h.Ledger.Purchases()),
		Sales:     len(h.Ledger.Sales()),
		Debts:     len(h.Ledger.Debts()),
		Products:  len(h.Ledger.Products()),
		Clients:   len(h.Ledger.Clients()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// reportRange reads ?from= and ?to=. The default is the twelve months
// ending today.
func (h *Handler) reportRange(r *http.Request) (generic.TimePoint, generic.TimePoint, error) {
	today := generic.TimePointOf(h.Ledger.Now())
	to := today
	from := generic.StartOfMonth(today.Year(), today.Month()).AddMonths(-11)

	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		tp, err := generic.ParseTimePoint(s)
		if err != nil {
			return from, to, &generic.ValidationError{Field: "from", Message: "must be a date in YYYY-MM-DD form"}
		}
		from = tp
	}
	if s := q.Get("to"); s != "" {
		tp, err := generic.ParseTimePoint(s)
		if err != nil {
			return from, to, &generic.ValidationError{Field: "to", Message: "must be a date in YYYY-MM-DD form"}
		}
		to = tp
	}
	if to.Before(from) {
		return from, to, &generic.ValidationError{Field: "to", Message: "must not be before from"}
	}
	return from, to, nil
}

func (h *Handler) body(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return nil, false
	}
	return data, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, ok := h.body(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// fail maps err to a status and writes it. Server-side failures are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	resp := ErrorResponse{Error: message, Details: err.Error()}

	var ve *generic.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrPersistence):
		return http.StatusInternalServerError, "Failed to save changes"
	case generic.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, generic.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, generic.ErrHasDependents):
		return http.StatusConflict, "Record has dependent records"
	case errors.Is(err, generic.ErrOverpayment):
		return http.StatusUnprocessableEntity, "Payment exceeds outstanding debt"
	case errors.Is(err, generic.ErrInvalidImport):
		return http.StatusUnprocessableEntity, "Invalid import file"
	case errors.Is(err, generic.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// requestTimeout bounds scenario loads and other multi-step handlers.
const requestTimeout = 30 * time.Second
