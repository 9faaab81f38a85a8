// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/theirongolddev/subtrack/internal/model"
)

// symbolOverrides replaces x/text narrow symbols that read poorly in a table.
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
}

// localeFor picks the number grouping used for a currency.
var localeFor = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"GBP": language.BritishEnglish,
	"EUR": language.German,
	"CHF": language.German,
	"SEK": language.Swedish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"JPY": language.Japanese,
	"CAD": language.English,
	"AUD": language.English,
	"INR": language.English,
	"BRL": language.BrazilianPortuguese,
}

// prefixSymbol lists currencies written as symbol-then-amount. x/text does
// not expose CLDR symbol placement.
var prefixSymbol = map[string]bool{
	"USD": true, "GBP": true, "JPY": true, "CAD": true,
	"AUD": true, "INR": true, "NZD": true, "HKD": true,
}

// FormatMoney formats amount in the given ISO 4217 currency with two
// decimals, e.g. 1234.5 USD -> "$1,234.50", 12 EUR -> "12,00 €".
func FormatMoney(amount float64, code string) string {
	code = strings.ToUpper(code)
	tag, ok := localeFor[code]
	if !ok {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := p.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	sym := code
	if s, ok := symbolOverrides[code]; ok {
		sym = s
	} else if unit, err := currency.ParseISO(code); err == nil {
		sym = p.Sprint(currency.NarrowSymbol(unit))
	}

	var out string
	if prefixSymbol[code] {
		out = sym + digits
	} else {
		out = digits + " " + sym
	}
	if neg {
		return "-" + out
	}
	return out
}

// FormatDays describes a day offset relative to today.
func FormatDays(n int) string {
	switch {
	case n == 0:
		return "today"
	case n == 1:
		return "tomorrow"
	case n == -1:
		return "yesterday"
	case n < 0:
		return fmt.Sprintf("%d days ago", -n)
	default:
		return fmt.Sprintf("in %d days", n)
	}
}

// FormatCycle is the short label used in tables, e.g. "/mo".
func FormatCycle(c model.BillingCycle) string {
	switch c {
	case model.CycleMonthly:
		return "/mo"
	case model.CycleQuarterly:
		return "/qtr"
	case model.CycleBiAnnual:
		return "/6mo"
	case model.CycleYearly:
		return "/yr"
	}
	return ""
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
