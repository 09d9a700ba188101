// Package currencyutils parses the money strings found in marketplace
// exports and formats amounts back for display.
package currencyutils

import (
	"strings"

	"github.com/shopspring/decimal"
)

type currencyMarker struct {
	marker string
	code   string
}

// currencyMarkers is matched in order against the lower-cased input, so
// composite symbols ("us $", "c$") must precede the bare ones.
var currencyMarkers = []currencyMarker{
	{"zł", "PLN"},
	{"pln", "PLN"},
	{"us $", "USD"},
	{"us$", "USD"},
	{"usd", "USD"},
	{"c$", "CAD"},
	{"cad", "CAD"},
	{"a$", "AUD"},
	{"aud", "AUD"},
	{"r$", "BRL"},
	{"brl", "BRL"},
	{"cn¥", "CNY"},
	{"cny", "CNY"},
	{"€", "EUR"},
	{"eur", "EUR"},
	{"£", "GBP"},
	{"gbp", "GBP"},
	{"chf", "CHF"},
	{"kč", "CZK"},
	{"czk", "CZK"},
	{"sek", "SEK"},
	{"nok", "NOK"},
	{"dkk", "DKK"},
	{"huf", "HUF"},
	{"₹", "INR"},
	{"inr", "INR"},
	{"₩", "KRW"},
	{"krw", "KRW"},
	{"₽", "RUB"},
	{"₺", "TRY"},
	{"¥", "JPY"},
	{"jpy", "JPY"},
	{"$", "USD"},
}

// symbols used by FormatMoney; codes without an entry are printed as-is.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"PLN": "zł",
	"JPY": "¥",
	"INR": "₹",
}

// DetectCurrency returns the ISO code of the first currency marker found in
// s, or fallback when none is present.
func DetectCurrency(s, fallback string) string {
	lower := strings.ToLower(s)
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m.marker) {
			return m.code
		}
	}
	return strings.ToUpper(fallback)
}

// ParseMoney reads an amount and its currency from a display string such as
// "US $1,234.56", "1 299,99 zł" or "(12.50)". The currency is detected before
// the string is reduced to digits and separators. Unparseable input yields
// zero, never an error.
func ParseMoney(s, fallbackCurrency string) (decimal.Decimal, string) {
	return ParseAmount(s), DetectCurrency(s, fallbackCurrency)
}

// ParseAmount is ParseMoney without currency detection.
func ParseAmount(s string) decimal.Decimal {
	amount, err := decimal.NewFromString(StandardizeAmount(s))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// StandardizeAmount reduces a money string to a form decimal.NewFromString
// accepts:
//   - a value wrapped in parentheses is negative;
//   - surrounding quotes or apostrophes are stripped;
//   - only digits, '.', ',' and '-' are kept;
//   - with both separators present the rightmost one is the decimal point;
//   - a single lone separator is the decimal point, repeated ones group thousands.
func StandardizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.Contains(cleaned, "-") {
		negative = true
		cleaned = strings.ReplaceAll(cleaned, "-", "")
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	if negative && cleaned != "" {
		return "-" + cleaned
	}
	return cleaned
}

// ParsePipeMoney handles the "<display>|<integer>|<fraction>" price cells of
// some spreadsheet exports, e.g. "US $12.99|12|99". The amount is
// integer + fraction/100 and the currency comes from the display segment.
// Cells without the pipe layout are parsed by ParseMoney.
func ParsePipeMoney(s, fallbackCurrency string) (decimal.Decimal, string) {
	parts := strings.Split(s, "|")
	if len(parts) < 3 {
		return ParseMoney(parts[0], fallbackCurrency)
	}

	currency := DetectCurrency(parts[0], fallbackCurrency)
	whole, errWhole := decimal.NewFromString(strings.TrimSpace(parts[1]))
	frac, errFrac := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if errWhole != nil || errFrac != nil || !whole.IsInteger() || !frac.IsInteger() {
		return ParseAmount(parts[0]), currency
	}
	return whole.Add(frac.Div(decimal.NewFromInt(100))), currency
}

// FromMinorUnits converts an amount in cents to major units.
func FromMinorUnits(cents decimal.Decimal) decimal.Decimal {
	return cents.Shift(-2)
}

// Style controls how FormatMoney renders an amount.
type Style struct {
	DecimalSep  string
	GroupSep    string
	SymbolAfter bool
	// UseCode prints the ISO code instead of the symbol.
	UseCode bool
}

// Common display styles found in exports.
var (
	StylePlain        = Style{DecimalSep: "."}
	StyleUS           = Style{DecimalSep: ".", GroupSep: ","}
	StyleEuropean     = Style{DecimalSep: ",", GroupSep: ".", SymbolAfter: true}
	StylePolish       = Style{DecimalSep: ",", GroupSep: " ", SymbolAfter: true}
	StyleCodeSuffix   = Style{DecimalSep: ",", SymbolAfter: true, UseCode: true}
	StyleCodePrefixed = Style{DecimalSep: ".", GroupSep: "'", UseCode: true}
)

// FormatMoney renders amount with two decimals in the given style.
func FormatMoney(amount decimal.Decimal, currency string, style Style) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}
	if style.GroupSep != "" {
		intPart = group(intPart, style.GroupSep)
	}
	decimalSep := style.DecimalSep
	if decimalSep == "" {
		decimalSep = "."
	}

	number := intPart + decimalSep + fracPart
	if amount.IsNegative() {
		number = "-" + number
	}

	code := strings.ToUpper(currency)
	if code == "" {
		return number
	}
	symbol, ok := symbols[code]
	if style.UseCode || !ok {
		symbol = code
	}
	if style.SymbolAfter {
		return number + " " + symbol
	}
	if ok && !style.UseCode {
		return symbol + number
	}
	return symbol + " " + number
}

// FormatAmount renders amount the way the ledger prints it in reports:
// two decimals, no grouping, symbol or code in front.
func FormatAmount(amount decimal.Decimal, currency string) string {
	return FormatMoney(amount, currency, StylePlain)
}

func group(digits, sep string) string {
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
