package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		minor    int64
	}{
		{"19.99", "USD", 1999},
		{"19.99", "usd", 1999},
		{"1200", "JPY", 1200},
		{"0.5", "EUR", 50},
	}
	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.currency, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.minor, ToMinorUnits(amount, tt.currency))
			assert.True(t, FromMinorUnits(tt.minor, tt.currency).Equal(amount))
		})
	}
}

func TestRoundToCurrency(t *testing.T) {
	assert.Equal(t, "1201", RoundToCurrency(decimal.RequireFromString("1200.5"), "JPY").String())
	assert.Equal(t, "20", RoundToCurrency(decimal.RequireFromString("19.999"), "USD").String())
	assert.Equal(t, "19.99", RoundToCurrency(decimal.RequireFromString("19.99"), "").String())
}

func TestCheckPrecision(t *testing.T) {
	assert.NoError(t, CheckPrecision(decimal.RequireFromString("1200"), "JPY"))
	assert.NoError(t, CheckPrecision(decimal.RequireFromString("12.50"), "USD"))

	err := CheckPrecision(decimal.RequireFromString("1200.5"), "jpy")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "JPY")
	assert.ErrorIs(t, CheckPrecision(decimal.RequireFromString("1.005"), "USD"), ErrInvalidInput)
}
