package generic_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bizmob/ledger/generic"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount string
		symbol string
		want   string
	}{
		{"12.5", "$", "$12.50"},
		{"0", "", "$0.00"},
		{"1234.567", "€", "€1234.57"},
		{"-3", "$", "$-3.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generic.FormatCurrency(decimal.RequireFromString(tt.amount), tt.symbol))
	}
}

func TestParseCurrency(t *testing.T) {
	tests := map[string]string{
		"$1250.75": "1250.75",
		"1,250":    "1250",
		"12 €":     "12",
		"-4.5":     "-4.5",
		"abc":      "0",
		"":         "0",
		"1.2.3":    "1.2",
		"12-3":     "12",
		"12.":      "12",
		".5":       "0.5",
		"-.5":      "-0.5",
		"--3":      "0",
	}
	for in, want := range tests {
		got := generic.ParseCurrency(in)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%q: want %s got %s", in, want, got)
	}
}

func TestAmountHelpers(t *testing.T) {
	assert.True(t, generic.ClampZero(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, generic.ClampZero(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
	assert.True(t, generic.Sum().IsZero())
	assert.True(t, generic.Sum(generic.NewAmount(1.5), generic.NewAmountFromInt(2)).Equal(generic.NewAmount(3.5)))
	assert.True(t, generic.ApproxEqual(generic.NewAmount(1.0000001), generic.NewAmount(1), generic.NewAmount(0.001)))
	assert.False(t, generic.IsSet(nil))
	assert.False(t, generic.IsSet(generic.DecimalPtr(decimal.Zero)))
	assert.True(t, generic.IsSet(generic.DecimalPtr(decimal.NewFromInt(1))))
	assert.True(t, generic.ValueOrZero(nil).IsZero())
	assert.True(t, generic.MustParseDecimal("x").IsZero())
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	raw, err := generic.NewAmount(12.5).MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "12.5", string(raw))
}
