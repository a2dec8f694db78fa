package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"splitpot/backend/models"
)

// FormatNumber renders |value| with the given number of decimals. A ","
// decimal-separator preference yields "1 234,50"; anything else "1,234.50".
// Field separators come from the preference, never from a locale.
func FormatNumber(value float64, decimals int, prefs models.Preferences) string {
	if decimals < 0 {
		decimals = 0
	}
	fixed := decimal.NewFromFloat(math.Abs(value)).StringFixed(int32(decimals))

	intPart, fracPart := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	thousands, decimalMark := ",", "."
	if prefs.DecimalSeparator == "," {
		thousands, decimalMark = " ", ","
	}

	grouped := groupThousands(intPart, thousands)
	if fracPart == "" {
		return grouped
	}
	return grouped + decimalMark + fracPart
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatCurrency renders amount with the preferred symbol placement. Negative
// amounts get a single leading "-" in front of the whole string.
func FormatCurrency(amount float64, prefs models.Preferences) string {
	formatted := withSymbol(FormatNumber(amount, 2, prefs), prefs)
	if amount < 0 {
		return "-" + formatted
	}
	return formatted
}

// FormatCurrencyAbs renders |amount| and never emits a sign
func FormatCurrencyAbs(amount float64, prefs models.Preferences) string {
	return withSymbol(FormatNumber(amount, 2, prefs), prefs)
}

// FormatSignedCurrency prefixes "+" for positive and "-" for negative amounts
func FormatSignedCurrency(amount float64, prefs models.Preferences) string {
	formatted := FormatCurrencyAbs(amount, prefs)
	switch {
	case amount > 0:
		return "+" + formatted
	case amount < 0:
		return "-" + formatted
	default:
		return formatted
	}
}

func withSymbol(number string, prefs models.Preferences) string {
	if prefs.CurrencySymbol == "" {
		return number
	}
	if prefs.CurrencyPosition == models.CurrencyAfter {
		return number + " " + prefs.CurrencySymbol
	}
	return prefs.CurrencySymbol + number
}

// Round2 rounds to cents, half away from zero
func Round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}
