package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"debtledger/internal/core"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// amountOrNaN parses a user amount. Blank input is 0 and garbage is NaN, so
// the core validators report the same message the form would.
func amountOrNaN(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	v, err := core.ParseAmount(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// dateOrEmpty parses YYYY-MM-DD; anything else counts as not supplied.
func dateOrEmpty(s string) core.Date {
	if strings.TrimSpace(s) == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

// recordID reads the {id} URL parameter.
func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// routePattern returns the matched chi pattern, or "" before routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// percentWidth scales part against whole to 0..100 for meters and bars.
func percentWidth(part, whole float64) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	w := int(math.Round(part * 100 / whole))
	if w > 100 {
		return 100
	}
	if w < 1 {
		return 1
	}
	return w
}
