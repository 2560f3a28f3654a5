package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/snapline/snapline-server/internal/errors"
)

// orderParam parses the {order} URL parameter.
func orderParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "order")
	order, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || order < 0 {
		return 0, domainerrors.Validationf("invalid picture order %q", raw)
	}
	return order, nil
}

// yearsParam parses the {years} URL parameter as a float, so callers
// can ask for fractional ages like 2.5.
func yearsParam(r *http.Request) (float64, error) {
	raw := chi.URLParam(r, "years")
	years, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domainerrors.Validationf("invalid years value %q", raw)
	}
	return years, nil
}

// parseRotation parses a rotation form value.
func parseRotation(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainerrors.Validationf("invalid rotation %q", raw)
	}
	return n, nil
}

// parsePositiveInt parses a positive integer query value.
func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domainerrors.Validationf("invalid count %q", raw)
	}
	return n, nil
}

// parseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domainerrors.Validationf("invalid date %q, want RFC 3339 or YYYY-MM-DD", raw)
}
