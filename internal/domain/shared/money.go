package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func currencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits converts an amount to the smallest currency unit (cents for USD)
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(currencyExponent(currency)).Round(0).IntPart()
}

// RoundToCurrency rounds an amount to the currency's minor unit
func RoundToCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(currencyExponent(currency))
}

// CheckPrecision rejects amounts finer than the currency's minor unit,
// such as 1200.5 JPY, which could not be charged as given.
func CheckPrecision(amount decimal.Decimal, currency string) error {
	if !amount.Equal(RoundToCurrency(amount, currency)) {
		return ErrInvalidInput.Withf("amount %s has more decimal places than %s allows", amount.String(), strings.ToUpper(currency))
	}
	return nil
}

// FromMinorUnits converts an amount in the smallest currency unit to a decimal
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -currencyExponent(currency))
}
