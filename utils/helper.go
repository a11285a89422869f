package utils

import (
	"fmt"
	"time"
)

var mesesPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDataBR converts an ISO date (2006-01-02) into the Brazilian display
// form (02/01/2006).
func FormatDataBR(isoDate string) (string, error) {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", isoDate, err)
	}
	return t.Format("02/01/2006"), nil
}

// FormatMesReferencia converts a reference month (2006-01) into the
// lowercase Portuguese month-year label ("janeiro/2006"). The label is used
// as a ledger idempotency key, so it must stay stable.
func FormatMesReferencia(mes string) (string, error) {
	t, err := time.Parse("2006-01", mes)
	if err != nil {
		return "", fmt.Errorf("invalid reference month %q: %w", mes, err)
	}
	return fmt.Sprintf("%s/%d", mesesPT[t.Month()-1], t.Year()), nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// DereferencePtr returns *p, or def when p is nil.
func DereferencePtr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
