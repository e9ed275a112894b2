package business_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

func TestNormalizePurchase(t *testing.T) {
	p, err := business.NormalizePurchase(business.PurchaseDraft{
		SupplierName: "  Mill ",
		ProductName:  " Rice ",
		Quantity:     d("12"),
		UnitPrice:    d("2.5"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Rice", p.ProductName)
	assert.Equal(t, "Mill", p.SupplierName)
	assertDec(t, "30", p.TotalPrice)
}

func TestNormalizePurchase_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		draft business.PurchaseDraft
		field string
	}{
		{"no product", business.PurchaseDraft{Quantity: d("1")}, "productName"},
		{"zero quantity", business.PurchaseDraft{ProductName: "Rice", Quantity: d("0")}, "quantity"},
		{"negative price", business.PurchaseDraft{ProductName: "Rice", Quantity: d("1"), UnitPrice: d("-1")}, "unitPrice"},
		{"negative sale price", business.PurchaseDraft{ProductName: "Rice", Quantity: d("1"), InitialSalePrice: d("-1")}, "initialSalePrice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := business.NormalizePurchase(tt.draft)

			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, generic.ErrInvalidInput)
		})
	}
}

func TestNormalizeSale_Totals(t *testing.T) {
	s, err := business.NormalizeSale(business.SaleDraft{
		ClientName: "Acme",
		Items: []business.SaleItemDraft{
			{ProductName: "Rice", Quantity: d("2"), UnitPrice: d("6")},
			{ProductName: "Oil", Quantity: d("1"), UnitPrice: d("3.5")},
		},
		PaymentStatus: business.StatusPaid,
		AmountPaid:    d("99"),
	})
	require.NoError(t, err)

	assertDec(t, "12", s.Items[0].TotalPrice)
	assertDec(t, "15.5", s.TotalAmount)
	assert.Nil(t, s.AmountPaid, "paid sales carry no amountPaid")
	assert.Nil(t, s.RemainingDebt)
}

func TestNormalizeSale_Partial(t *testing.T) {
	draft := debtDraft("Acme", "Rice", "10", "10")
	draft.PaymentStatus = business.StatusPartial
	draft.AmountPaid = d("40")

	s, err := business.NormalizeSale(draft)
	require.NoError(t, err)

	assertDec(t, "40", *s.AmountPaid)
	assertDec(t, "60", *s.RemainingDebt)
}

func TestNormalizeSale_PartialBounds(t *testing.T) {
	for _, paid := range []string{"0", "100", "150", "-5"} {
		t.Run(paid, func(t *testing.T) {
			draft := debtDraft("Acme", "Rice", "10", "10")
			draft.PaymentStatus = business.StatusPartial
			draft.AmountPaid = d(paid)

			_, err := business.NormalizeSale(draft)

			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "amountPaid", ve.Field)
		})
	}
}

func TestNormalizeSale_Debt(t *testing.T) {
	draft := debtDraft("Acme", "Rice", "10", "10")
	draft.AmountPaid = d("30")

	s, err := business.NormalizeSale(draft)
	require.NoError(t, err)

	assert.Nil(t, s.AmountPaid)
	assertDec(t, "100", *s.RemainingDebt)
}

func TestNormalizeSale_Rejects(t *testing.T) {
	noDue := debtDraft("Acme", "Rice", "1", "1")
	noDue.ExpectedPaymentDate = nil

	badStatus := paidDraft("Acme", "Rice", "1", "1")
	badStatus.PaymentStatus = "later"

	tests := []struct {
		name  string
		draft business.SaleDraft
		field string
	}{
		{"blank client", paidDraft("  ", "Rice", "1", "1"), "clientName"},
		{"no items", business.SaleDraft{ClientName: "Acme", PaymentStatus: business.StatusPaid}, "items"},
		{"zero quantity", paidDraft("Acme", "Rice", "0", "1"), "items[0].quantity"},
		{"negative price", paidDraft("Acme", "Rice", "1", "-1"), "items[0].unitPrice"},
		{"debt without due date", noDue, "expectedPaymentDate"},
		{"unknown status", badStatus, "paymentStatus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := business.NormalizeSale(tt.draft)

			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestApplyPatch(t *testing.T) {
	original, err := business.NormalizeSale(debtDraft("Acme", "Rice", "10", "10"))
	require.NoError(t, err)

	t.Run("debt to partial", func(t *testing.T) {
		status := business.StatusPartial
		paid := d("25")

		out, err := business.ApplyPatch(original, business.SalePatch{PaymentStatus: &status, AmountPaid: &paid})
		require.NoError(t, err)

		assertDec(t, "75", *out.RemainingDebt)
		assertDec(t, "25", *out.AmountPaid)
	})

	t.Run("to paid clears debt fields", func(t *testing.T) {
		status := business.StatusPaid

		out, err := business.ApplyPatch(original, business.SalePatch{PaymentStatus: &status})
		require.NoError(t, err)

		assert.Nil(t, out.RemainingDebt)
		assert.Nil(t, out.ExpectedPaymentDate)
	})

	t.Run("rename and redate", func(t *testing.T) {
		name := " Bob "
		out, err := business.ApplyPatch(original, business.SalePatch{ClientName: &name, SaleDate: datePtr(2025, time.February, 2)})
		require.NoError(t, err)

		assert.Equal(t, "Bob", out.ClientName)
		assert.Equal(t, at(2025, time.February, 2), out.EffectiveDate())
		assert.Equal(t, "Acme", original.ClientName, "original untouched")
	})
}
