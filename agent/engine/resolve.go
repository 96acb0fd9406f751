package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

var errEmptyIdentifier = errors.New("product identifier is empty")

var ordinalWords = map[string]int{
	"first":  1,
	"1st":    1,
	"second": 2,
	"2nd":    2,
	"third":  3,
	"3rd":    3,
	"fourth": 4,
	"4th":    4,
	"fifth":  5,
	"5th":    5,
}

// resolveProduct maps a user reference to a product. The last shown list is
// searched first (ordinal, id, then name) and the full catalog second.
func (e *Engine) resolveProduct(ctx context.Context, st *statex.SessionState, identifier string) (contractx.Product, error) {
	ref := strings.ToLower(strings.TrimSpace(identifier))
	shown := st.LastShownProducts

	if ref == "" {
		if len(shown) == 1 {
			return shown[0], nil
		}
		return contractx.Product{}, errEmptyIdentifier
	}

	if idx, ok := ordinalIndex(ref, len(shown)); ok {
		return shown[idx], nil
	}
	if p, ok := findProduct(shown, ref, st.LocationCode); ok {
		return p, nil
	}

	catalog, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return contractx.Product{}, err
	}
	if p, ok := findProduct(catalog, ref, st.LocationCode); ok {
		return p, nil
	}
	return contractx.Product{}, fmt.Errorf("%w: product %q", contractx.ErrNotFound, identifier)
}

// findProduct matches by id first, then case-insensitive name. Among several
// name matches the one deliverable to code wins.
func findProduct(products []contractx.Product, ref string, code string) (contractx.Product, bool) {
	for _, p := range products {
		if strings.EqualFold(strings.TrimSpace(p.ID), ref) {
			return p, true
		}
	}

	var (
		fallback contractx.Product
		found    bool
	)
	for _, p := range products {
		if !strings.EqualFold(strings.TrimSpace(p.Name), ref) {
			continue
		}
		if p.AvailableAt(code) {
			return p, true
		}
		if !found {
			fallback, found = p, true
		}
	}
	return fallback, found
}

// ordinalIndex understands "first", "2nd one", "last", "#3" and "number 3"
// against a list of n entries.
func ordinalIndex(ref string, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	ref = strings.TrimSuffix(ref, " one")
	ref = strings.TrimSuffix(ref, " product")
	ref = strings.TrimSpace(ref)

	if ref == "last" {
		return n - 1, true
	}
	if pos, ok := ordinalWords[ref]; ok && pos <= n {
		return pos - 1, true
	}

	var digits string
	switch {
	case strings.HasPrefix(ref, "#"):
		digits = strings.TrimPrefix(ref, "#")
	case strings.HasPrefix(ref, "number "):
		digits = strings.TrimPrefix(ref, "number ")
	default:
		return 0, false
	}
	pos, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil || pos < 1 || pos > n {
		return 0, false
	}
	return pos - 1, true
}

// matchCategory resolves free text against the session's category labels:
// exact match, then a label containing the query, then a query containing
// the label ("physical products").
func matchCategory(available []string, query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}
	for _, c := range available {
		if strings.EqualFold(strings.TrimSpace(c), q) {
			return c, true
		}
	}
	for _, c := range available {
		if strings.Contains(strings.ToLower(c), q) {
			return c, true
		}
	}
	for _, c := range available {
		if strings.Contains(q, strings.ToLower(strings.TrimSpace(c))) {
			return c, true
		}
	}
	return "", false
}
