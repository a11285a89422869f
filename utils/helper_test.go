package utils

import "testing"

func TestFormatDataBR(t *testing.T) {
	got, err := FormatDataBR("2024-05-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "02/05/2024" {
		t.Fatalf("expected 02/05/2024, got %q", got)
	}

	if _, err := FormatDataBR("02/05/2024"); err == nil {
		t.Fatal("non-ISO input must fail")
	}
}

func TestFormatMesReferencia(t *testing.T) {
	cases := map[string]string{
		"2024-01": "janeiro/2024",
		"2024-03": "março/2024",
		"2024-05": "maio/2024",
		"2024-12": "dezembro/2024",
	}
	for in, want := range cases {
		got, err := FormatMesReferencia(in)
		if err != nil {
			t.Fatalf("FormatMesReferencia(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("FormatMesReferencia(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := FormatMesReferencia("2024-13"); err == nil {
		t.Fatal("invalid month must fail")
	}
	if _, err := FormatMesReferencia("maio/2024"); err == nil {
		t.Fatal("localized input must fail")
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v, 0); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := DereferencePtr[int](nil, 3); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}
	if got := DereferencePtr(Ptr("x"), ""); got != "x" {
		t.Fatalf("expected x, got %q", got)
	}
}
