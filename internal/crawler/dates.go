package crawler

import (
	"errors"
	"time"

	"github.com/pagesift/pagesift/internal/types"
)

// boundLayout is the only format accepted for request date bounds.
const boundLayout = "2006-01-02"

// pageDateLayouts are tried in order against dates found on pages. Pages use
// whatever format their CMS emits, so parsing is best effort.
var pageDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// DateFilter decides whether a page's dates fall inside the window a crawl
// request asked for.
type DateFilter struct {
	from, to       time.Time
	hasFrom, hasTo bool
}

// NewDateFilter parses the request bounds and validates their order. Empty
// strings mean the bound is absent.
func NewDateFilter(from, to string) (*DateFilter, error) {
	f := &DateFilter{}
	if from != "" {
		t, err := ParseBound(from)
		if err != nil {
			return nil, err
		}
		f.from, f.hasFrom = t, true
	}
	if to != "" {
		t, err := ParseBound(to)
		if err != nil {
			return nil, err
		}
		f.to, f.hasTo = t, true
	}
	if f.hasFrom && f.hasTo && f.from.After(f.to) {
		return nil, &types.DateParseError{Err: errors.New("date_from cannot be after date_to")}
	}
	return f, nil
}

// Bounded reports whether the filter carries at least one bound.
func (f *DateFilter) Bounded() bool {
	return f.hasFrom || f.hasTo
}

// Matches reports whether the page should be processed. An unbounded filter
// passes everything. A bounded filter passes the page when any parseable
// candidate date falls inside the window, and stays permissive when no
// candidate parses at all.
func (f *DateFilter) Matches(candidates ...string) bool {
	if !f.Bounded() {
		return true
	}
	parsed := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if d, ok := ParsePageDate(c); ok {
			parsed = append(parsed, d)
		}
	}
	if len(parsed) == 0 {
		return true
	}
	for _, d := range parsed {
		afterFrom := !f.hasFrom || !d.Before(f.from)
		beforeTo := !f.hasTo || !d.After(f.to)
		if afterFrom && beforeTo {
			return true
		}
	}
	return false
}

// ParseBound parses a request bound, which must be a plain YYYY-MM-DD date.
func ParseBound(s string) (time.Time, error) {
	t, err := time.Parse(boundLayout, s)
	if err != nil {
		return time.Time{}, &types.DateParseError{Value: s, Err: err}
	}
	return t, nil
}

// ParsePageDate tries the known page date formats in order and returns the
// calendar day of the first that parses.
func ParsePageDate(s string) (time.Time, bool) {
	for _, layout := range pageDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
