package business

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// AUDIT TRAIL
// =============================================================================

// AuditAction is what happened to an entity.
type AuditAction string

const (
	AuditCreate  AuditAction = "CREATE"
	AuditUpdate  AuditAction = "UPDATE"
	AuditDelete  AuditAction = "DELETE"
	AuditPayment AuditAction = "PAYMENT"
	AuditImport  AuditAction = "IMPORT"
)

// EntityType is the kind of record an audit entry is about.
type EntityType string

const (
	EntityPurchase EntityType = "PURCHASE"
	EntitySale     EntityType = "SALE"
	EntityDebt     EntityType = "DEBT"
	EntityProduct  EntityType = "PRODUCT"
	EntityClient   EntityType = "CLIENT"
	EntityLedger   EntityType = "LEDGER"
)

// FieldChange is one field that differs between two versions of a record.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// AuditMetadata carries the values most views filter on.
type AuditMetadata struct {
	ClientName    string           `json:"clientName,omitempty"`
	ProductName   string           `json:"productName,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
}

// AuditEntry records one mutation.
type AuditEntry struct {
	ID          string         `json:"id"`
	Date        time.Time      `json:"date"`
	Action      AuditAction    `json:"action"`
	EntityType  EntityType     `json:"entityType"`
	EntityID    string         `json:"entityId"`
	EntityName  string         `json:"entityName"`
	UserID      string         `json:"userId"`
	Changes     []FieldChange  `json:"changes"`
	Description string         `json:"description"`
	Metadata    *AuditMetadata `json:"metadata,omitempty"`
}

// AuditSink receives entries as they are written. The SQLite store
// implements it to keep a queryable copy.
type AuditSink interface {
	RecordAudit(entry AuditEntry) error
}

func newAuditEntry(at time.Time, action AuditAction, kind EntityType, id, name, user string) AuditEntry {
	return AuditEntry{
		ID:          uuid.NewString(),
		Date:        at,
		Action:      action,
		EntityType:  kind,
		EntityID:    id,
		EntityName:  name,
		UserID:      user,
		Changes:     []FieldChange{},
		Description: describe(action, kind, name),
	}
}

func describe(action AuditAction, kind EntityType, name string) string {
	switch action {
	case AuditCreate:
		return fmt.Sprintf("created %s %q", lower(kind), name)
	case AuditUpdate:
		return fmt.Sprintf("updated %s %q", lower(kind), name)
	case AuditDelete:
		return fmt.Sprintf("deleted %s %q", lower(kind), name)
	case AuditPayment:
		return fmt.Sprintf("recorded payment for %s", name)
	case AuditImport:
		return "imported ledger data"
	}
	return string(action)
}

func lower(kind EntityType) string {
	return strings.ToLower(string(kind))
}

// Diff compares two records field by field through their JSON form and
// lists what changed, sorted by field name.
func Diff(before, after any) []FieldChange {
	oldFields := toFields(before)
	newFields := toFields(after)

	keys := make(map[string]struct{}, len(oldFields)+len(newFields))
	for k := range oldFields {
		keys[k] = struct{}{}
	}
	for k := range newFields {
		keys[k] = struct{}{}
	}

	changes := []FieldChange{}
	for k := range keys {
		o, n := oldFields[k], newFields[k]
		if bytes.Equal(o, n) {
			continue
		}
		changes = append(changes, FieldChange{Field: k, OldValue: decodeRaw(o), NewValue: decodeRaw(n)})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func toFields(v any) map[string]json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func decodeRaw(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// AuditQuery filters audit entries. Zero fields match everything.
type AuditQuery struct {
	EntityID   string
	EntityType EntityType
	Action     AuditAction
	From       time.Time
	To         time.Time
	Limit      int
}

// Match reports whether e passes every filter of q except Limit.
func (q AuditQuery) Match(e AuditEntry) bool {
	switch {
	case q.EntityID != "" && e.EntityID != q.EntityID:
		return false
	case q.EntityType != "" && e.EntityType != q.EntityType:
		return false
	case q.Action != "" && e.Action != q.Action:
		return false
	case !q.From.IsZero() && e.Date.Before(q.From):
		return false
	case !q.To.IsZero() && e.Date.After(q.To):
		return false
	}
	return true
}

// QueryAudit returns the matching entries, preserving order, at most
// q.Limit of them when it is positive.
func QueryAudit(entries []AuditEntry, q AuditQuery) []AuditEntry {
	out := make([]AuditEntry, 0)
	for _, e := range entries {
		if !q.Match(e) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// FilterAudit returns the entries about entityID, preserving order.
func FilterAudit(entries []AuditEntry, entityID string) []AuditEntry {
	var out []AuditEntry
	for _, e := range entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}
