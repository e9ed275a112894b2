package business_test

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// =============================================================================
// ACCRUAL
// =============================================================================

func TestAccrueDebt_CreatesThenExtendsRow(t *testing.T) {
	debts := business.AccrueDebt(nil, debtSale("s1", "Acme", "100", at(2025, time.January, 1)))

	require.Len(t, debts, 1)
	assert.Equal(t, business.DebtID("Acme"), debts[0].ID)
	assertDec(t, "100", debts[0].TotalDebt)
	assert.Equal(t, []string{"s1"}, debts[0].SalesIDs)

	debts = business.AccrueDebt(debts, partialSale("s2", "Acme", "50", "20", at(2025, time.January, 2)))

	require.Len(t, debts, 1)
	assertDec(t, "130", debts[0].TotalDebt)
	assert.Equal(t, []string{"s1", "s2"}, debts[0].SalesIDs)
}

func TestAccrueDebt_PaidSaleIgnored(t *testing.T) {
	debts := business.AccrueDebt(nil, paidSale("s1", "Acme", "Rice", "1", "10"))
	assert.Empty(t, debts)
}

func TestAccrueDebt_DoesNotMutateInput(t *testing.T) {
	before := business.AccrueDebt(nil, debtSale("s1", "Acme", "100", at(2025, time.January, 1)))

	_ = business.AccrueDebt(before, debtSale("s2", "Acme", "5", at(2025, time.January, 1)))

	assertDec(t, "100", before[0].TotalDebt)
	assert.Len(t, before[0].SalesIDs, 1)
}

func TestAccrueDebt_ZeroAmountDebtRecorded(t *testing.T) {
	debts := business.AccrueDebt(nil, debtSale("s1", "Acme", "0", at(2025, time.January, 1)))

	require.Len(t, debts, 1)
	assertDec(t, "0", debts[0].TotalDebt)
	assert.Equal(t, []string{"s1"}, debts[0].SalesIDs)
}

func TestAdjustDebt(t *testing.T) {
	old := debtSale("s1", "Acme", "100", at(2025, time.January, 1))
	debts := business.AccrueDebt(nil, old)
	out, err := business.RecordPayment(debts, nil, business.PaymentRequest{DebtID: debts[0].ID, Amount: d("40")}, business.OverpaymentClamp)
	require.NoError(t, err)
	debts = out.Debts

	t.Run("unchanged amount keeps the balance", func(t *testing.T) {
		edited := old
		edited.ExpectedPaymentDate = datePtr(2025, time.April, 1)
		got, delta := business.AdjustDebt(debts, old, edited)
		assertDec(t, "0", delta)
		assertDec(t, "60", got[0].TotalDebt)
		assert.Equal(t, []string{"s1"}, got[0].SalesIDs)
	})

	t.Run("smaller debt moves by the difference", func(t *testing.T) {
		edited := partialSale("s1", "Acme", "100", "30", at(2025, time.January, 1))
		got, delta := business.AdjustDebt(debts, old, edited)
		assertDec(t, "-30", delta)
		assertDec(t, "30", got[0].TotalDebt)
	})

	t.Run("paid sale leaves the row", func(t *testing.T) {
		edited := paidSale("s1", "Acme", "Rice", "1", "100")
		got, delta := business.AdjustDebt(debts, old, edited)
		assertDec(t, "-100", delta)
		assertDec(t, "-40", got[0].TotalDebt)
		assert.Empty(t, got[0].SalesIDs)
	})

	t.Run("input is not modified", func(t *testing.T) {
		assertDec(t, "60", debts[0].TotalDebt)
		assert.Equal(t, []string{"s1"}, debts[0].SalesIDs)
	})
}

func TestAdjustDebt_PaidSaleStartsOwing(t *testing.T) {
	old := paidSale("s1", "Acme", "Rice", "1", "50")
	edited := debtSale("s1", "Acme", "50", at(2025, time.January, 1))

	got, delta := business.AdjustDebt(nil, old, edited)

	assertDec(t, "50", delta)
	require.Len(t, got, 1)
	assertDec(t, "50", got[0].TotalDebt)
	assert.Equal(t, []string{"s1"}, got[0].SalesIDs)
}

func TestReverseDebt(t *testing.T) {
	s1 := debtSale("s1", "Acme", "100", at(2025, time.January, 1))
	s2 := debtSale("s2", "Acme", "40", at(2025, time.January, 2))
	debts := business.AccrueDebt(business.AccrueDebt(nil, s1), s2)

	debts = business.ReverseDebt(debts, s1)

	assertDec(t, "40", debts[0].TotalDebt)
	assert.Equal(t, []string{"s2"}, debts[0].SalesIDs)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestRecordPayment_AcmeScenario(t *testing.T) {
	// GIVEN: Acme owes 100 from a debt sale
	sale := debtSale("s1", "Acme", "100", at(2025, time.January, 1))
	debts := business.AccrueDebt(nil, sale)
	clients := business.RecomputeClients(nil, []business.Sale{sale})
	assertDec(t, "100", clientNamed(t, clients, "Acme").TotalDebt)

	// WHEN: 40 is paid
	out, err := business.RecordPayment(debts, clients, business.PaymentRequest{
		DebtID: debts[0].ID, Amount: d("40"), PaymentMethod: "cash", At: at(2025, time.January, 5),
	}, business.OverpaymentClamp)
	require.NoError(t, err)

	// THEN: balance 60, payment captures before/after, client mirrors
	assertDec(t, "60", out.Debts[0].TotalDebt)
	assertDec(t, "100", out.Payment.PreviousDebt)
	assertDec(t, "60", out.Payment.NewDebt)
	assertDec(t, "40", out.Payment.AmountPaid)
	assert.Equal(t, "Acme", out.Payment.ClientName)
	assert.Equal(t, "cash", out.Payment.PaymentMethod)
	assert.NotEmpty(t, out.Payment.ID)
	assertDec(t, "60", clientNamed(t, out.Clients, "Acme").TotalDebt)
	assertDec(t, "100", debts[0].TotalDebt, "input untouched")
}

func TestRecordPayment_UnknownDebt(t *testing.T) {
	debts := business.AccrueDebt(nil, debtSale("s1", "Acme", "100", at(2025, time.January, 1)))

	_, err := business.RecordPayment(debts, nil, business.PaymentRequest{DebtID: "nope", Amount: d("1")}, business.OverpaymentClamp)

	var nf *generic.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "debt", nf.Kind)
	assert.True(t, generic.IsNotFound(err))
}

func TestRecordPayment_OverpaymentPolicies(t *testing.T) {
	sale := debtSale("s1", "Acme", "50", at(2025, time.January, 1))
	debts := business.AccrueDebt(nil, sale)
	clients := business.RecomputeClients(nil, []business.Sale{sale})
	req := business.PaymentRequest{DebtID: debts[0].ID, Amount: d("80")}

	t.Run("clamp floors at zero", func(t *testing.T) {
		out, err := business.RecordPayment(debts, clients, req, business.OverpaymentClamp)
		require.NoError(t, err)
		assertDec(t, "0", out.Debts[0].TotalDebt)
		assertDec(t, "0", out.Payment.NewDebt)
		assertDec(t, "0", clientNamed(t, out.Clients, "Acme").TotalDebt)
	})

	t.Run("reject leaves state unchanged", func(t *testing.T) {
		_, err := business.RecordPayment(debts, clients, req, business.OverpaymentReject)

		var over *generic.OverpaymentError
		require.ErrorAs(t, err, &over)
		assertDec(t, "50", over.Outstanding)
		assertDec(t, "80", over.Offered)
		assert.True(t, generic.IsClientError(err))
	})

	t.Run("credit goes negative", func(t *testing.T) {
		out, err := business.RecordPayment(debts, clients, req, business.OverpaymentCredit)
		require.NoError(t, err)
		assertDec(t, "-30", out.Debts[0].TotalDebt)
		assertDec(t, "-30", clientNamed(t, out.Clients, "Acme").TotalDebt)
	})
}

func TestDebtReconciliation_Property(t *testing.T) {
	// GIVEN: random accruals and payments for one client
	// THEN: balance == Σ accrued - Σ paid, with the running balance floored at 0
	for seed := int64(1); seed <= 30; seed++ {
		rng := rand.New(rand.NewSource(seed))
		var debts []business.Debt
		var payments []business.DebtPayment
		expected := decimal.Zero

		for step := 0; step < 40; step++ {
			amount := decimal.NewFromInt(int64(1 + rng.Intn(200)))
			if len(debts) == 0 || rng.Intn(2) == 0 {
				debts = business.AccrueDebt(debts, debtSale("s"+strconv.Itoa(step), "Acme", amount.String(), at(2025, time.January, 1)))
				expected = expected.Add(amount)
				continue
			}
			out, err := business.RecordPayment(debts, nil, business.PaymentRequest{DebtID: debts[0].ID, Amount: amount}, business.OverpaymentClamp)
			require.NoError(t, err)
			debts = out.Debts
			payments = append(payments, out.Payment)
			expected = generic.ClampZero(expected.Sub(amount))
		}

		require.Len(t, debts, 1)
		assertDec(t, expected.String(), debts[0].TotalDebt, "seed", strconv.FormatInt(seed, 10))
		for _, p := range payments {
			assertDec(t, generic.ClampZero(p.PreviousDebt.Sub(p.AmountPaid)).String(), p.NewDebt)
		}
	}
}

func TestDebtLookups(t *testing.T) {
	debts := business.AccrueDebt(nil, debtSale("s1", "Acme", "100", at(2025, time.January, 1)))
	payments := []business.DebtPayment{{ID: "p1", DebtID: debts[0].ID, AmountPaid: d("5")}}

	row, ok := business.DebtForSale(debts, "s1")
	require.True(t, ok)
	assert.Equal(t, debts[0].ID, row.ID)

	assert.True(t, business.HasPayments(payments, debts[0].ID))
	assert.False(t, business.HasPayments(payments, "other"))
	assert.Len(t, business.PaymentsFor(payments, debts[0].ID), 1)
	assertDec(t, "100", business.OutstandingTotal(debts))
}
