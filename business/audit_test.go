package business_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
)

func TestDiff(t *testing.T) {
	before := purchase("p1", "Rice", "10", "5")
	after := before
	after.Quantity = d("12")
	after.TotalPrice = d("60")

	changes := business.Diff(before, after)

	require.Len(t, changes, 2)
	assert.Equal(t, "quantity", changes[0].Field)
	assert.EqualValues(t, 10, changes[0].OldValue)
	assert.EqualValues(t, 12, changes[0].NewValue)
	assert.Equal(t, "totalPrice", changes[1].Field)
}

func TestDiff_Deletion(t *testing.T) {
	changes := business.Diff(purchase("p1", "Rice", "10", "5"), nil)

	assert.NotEmpty(t, changes)
	for _, c := range changes {
		assert.Nil(t, c.NewValue)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	entries []business.AuditEntry
}

func (r *recordingSink) RecordAudit(e business.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func TestLedger_AuditTrail(t *testing.T) {
	sink := &recordingSink{}
	clock := generic.NewFixedClock(at(2025, time.April, 1))
	l, err := business.Open(context.Background(), store.NewMemory(), business.Options{Clock: clock, AuditSink: sink})
	require.NoError(t, err)
	ctx := context.Background()

	p, err := l.AddPurchase(ctx, business.PurchaseDraft{ProductName: "Rice", Quantity: d("5"), UnitPrice: d("2")})
	require.NoError(t, err)
	s, err := l.AddSale(ctx, debtDraft("Acme", "Rice", "2", "4"))
	require.NoError(t, err)
	_, err = l.RecordPayment(ctx, business.DebtID("Acme"), d("3"), "cash")
	require.NoError(t, err)

	log := l.AuditLog()
	require.Len(t, log, 3)
	assert.Equal(t, business.AuditPayment, log[0].Action, "newest first")
	assert.Equal(t, business.EntityDebt, log[0].EntityType)
	assert.Equal(t, "cash", log[0].Metadata.PaymentMethod)
	assertDec(t, "3", *log[0].Metadata.Amount)
	assert.Equal(t, business.AuditCreate, log[1].Action)
	assert.Equal(t, s.ID, log[1].EntityID)
	assert.Equal(t, p.ID, log[2].EntityID)
	assert.Equal(t, "owner", log[2].UserID)
	assert.Equal(t, `created purchase "Rice"`, log[2].Description)
	assert.Equal(t, at(2025, time.April, 1), log[2].Date)

	assert.Len(t, sink.entries, 3)
	assert.Len(t, l.EntityAudit(s.ID), 1)
}

func TestQueryAudit(t *testing.T) {
	entries := []business.AuditEntry{
		{ID: "3", Date: at(2025, time.April, 3), Action: business.AuditPayment, EntityType: business.EntityDebt, EntityID: "d1"},
		{ID: "2", Date: at(2025, time.April, 2), Action: business.AuditCreate, EntityType: business.EntitySale, EntityID: "s1"},
		{ID: "1", Date: at(2025, time.April, 1), Action: business.AuditCreate, EntityType: business.EntityPurchase, EntityID: "p1"},
	}

	ids := func(es []business.AuditEntry) []string {
		out := []string{}
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"3", "2", "1"}, ids(business.QueryAudit(entries, business.AuditQuery{})))
	assert.Equal(t, []string{"2", "1"}, ids(business.QueryAudit(entries, business.AuditQuery{Action: business.AuditCreate})))
	assert.Equal(t, []string{"2"}, ids(business.QueryAudit(entries, business.AuditQuery{Action: business.AuditCreate, Limit: 1})))
	assert.Equal(t, []string{"1"}, ids(business.QueryAudit(entries, business.AuditQuery{EntityType: business.EntityPurchase})))
	assert.Equal(t, []string{"3"}, ids(business.QueryAudit(entries, business.AuditQuery{EntityID: "d1"})))
	assert.Equal(t, []string{"2"}, ids(business.QueryAudit(entries, business.AuditQuery{
		From: at(2025, time.April, 2), To: at(2025, time.April, 2),
	})))
	assert.NotNil(t, business.QueryAudit(nil, business.AuditQuery{}))
}
