// Package planilha implements the spreadsheet ingestion core: locale-aware
// numeric parsing, header-to-field resolution, sales normalization and
// per-period metric aggregation.
package planilha

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseValor converts a user- or acquirer-formatted numeric string into an
// exact decimal. Three forms are accepted:
//
//	"51.242,29"  Brazilian: '.' groups thousands, ',' is the decimal point
//	"51242.29"   plain decimal
//	"51242"      integer
//
// If the string contains a comma, the comma is the decimal point and every
// dot is a grouping character. Anything other than digits, '.', ',' and a
// leading '-' is stripped first (currency symbols, spaces). Blank or
// unparseable input yields zero, never an error: planilha cells are
// frequently empty and a lenient parse is part of the contract.
func ParseValor(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	neg := strings.HasPrefix(s, "-")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		// A second comma means garbage; drop everything after it.
		if i := strings.Index(s, ","); i >= 0 {
			s = s[:i]
		}
	}
	if neg {
		s = "-" + s
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return val
}

// ParseValorCelula parses a raw spreadsheet cell value, accepting native
// numerics as well as strings.
func ParseValorCelula(v interface{}) decimal.Decimal {
	switch c := v.(type) {
	case nil:
		return decimal.Zero
	case string:
		return ParseValor(c)
	case float64:
		return decimal.NewFromFloat(c)
	case float32:
		return decimal.NewFromFloat32(c)
	case int:
		return decimal.NewFromInt(int64(c))
	case int64:
		return decimal.NewFromInt(c)
	case decimal.Decimal:
		return c
	default:
		return decimal.Zero
	}
}

// FormatValor renders a non-negative value in Brazilian display form:
// thousands separated by '.', decimal ',' and exactly two fraction digits
// ("1234.5" -> "1.234,50"). Negative values render as the empty string.
func FormatValor(v decimal.Decimal) string {
	if v.IsNegative() {
		return ""
	}
	fixed := v.StringFixed(2)

	intPart := fixed
	fracPart := "00"
	if i := strings.Index(fixed, "."); i >= 0 {
		intPart = fixed[:i]
		fracPart = fixed[i+1:]
	}

	var grouped strings.Builder
	n := len(intPart)
	for i, r := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return grouped.String() + "," + fracPart
}
