package planilha

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseValor_AcceptsBrazilianAndPlainForms(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"51.242,29", "51242.29"},
		{"1.234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"1234", "1234"},
		{"0,50", "0.5"},
		{"R$ 1.234,56", "1234.56"},
		{"-10,5", "-10.5"},
		{"-50", "-50"},
		{"", "0"},
		{"   ", "0"},
		{"n/a", "0"},
		{"abc", "0"},
	}
	for _, tc := range cases {
		got := ParseValor(tc.in)
		if got.String() != tc.expected {
			t.Errorf("ParseValor(%q) expected %s, got %s", tc.in, tc.expected, got.String())
		}
	}
}

func TestParseValorCelula_AcceptsNativeNumerics(t *testing.T) {
	if got := ParseValorCelula(float64(51242.29)); got.String() != "51242.29" {
		t.Fatalf("float64 cell expected 51242.29, got %s", got.String())
	}
	if got := ParseValorCelula(100); got.String() != "100" {
		t.Fatalf("int cell expected 100, got %s", got.String())
	}
	if got := ParseValorCelula(nil); !got.IsZero() {
		t.Fatalf("nil cell expected 0, got %s", got.String())
	}
	if got := ParseValorCelula("1.234,56"); got.String() != "1234.56" {
		t.Fatalf("string cell expected 1234.56, got %s", got.String())
	}
}

func TestFormatValor_BrazilianDisplay(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1234.5", "1.234,50"},
		{"51242.29", "51.242,29"},
		{"0", "0,00"},
		{"999", "999,00"},
		{"1000000", "1.000.000,00"},
		{"-1", ""},
	}
	for _, tc := range cases {
		v, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad case %q: %v", tc.in, err)
		}
		if got := FormatValor(v); got != tc.expected {
			t.Errorf("FormatValor(%s) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestFormatValor_RoundTripsParseValor(t *testing.T) {
	for _, s := range []string{"1.234,56", "0,50", "51.242,29"} {
		if got := FormatValor(ParseValor(s)); got != s {
			t.Errorf("FormatValor(ParseValor(%q)) = %q, want identity", s, got)
		}
	}
}
