// Package listops applies search, filter, sort and pagination to an
// in-memory slice the way the dashboard tables do: substring search first,
// then categorical filters, then a stable sort, then the page slice.
package listops

import (
	"sort"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 10000
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps "desc"/"descending" (any case) to Desc and anything
// else to Asc.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Desc
	}
	return Asc
}

// Query describes one view of a list. The zero value is the first page of
// the unsorted, unfiltered list.
type Query struct {
	Search        string
	Filters       map[string]string
	SortKey       string
	SortDirection Direction
	Page          int
	PageSize      int
}

func (q Query) clone() Query {
	if q.Filters != nil {
		f := make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			f[k] = v
		}
		q.Filters = f
	}
	return q
}

// WithSearch changes the search term and returns to the first page.
func (q Query) WithSearch(term string) Query {
	q = q.clone()
	q.Search = term
	q.Page = 1
	return q
}

// WithFilter sets (or clears, for an empty value) one filter and returns to
// the first page.
func (q Query) WithFilter(key, value string) Query {
	q = q.clone()
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	if value == "" {
		delete(q.Filters, key)
	} else {
		q.Filters[key] = value
	}
	q.Page = 1
	return q
}

// WithSort changes ordering. The current page is kept.
func (q Query) WithSort(key string, dir Direction) Query {
	q = q.clone()
	q.SortKey = key
	q.SortDirection = dir
	return q
}

// WithPageSize changes the page size and returns to the first page.
func (q Query) WithPageSize(size int) Query {
	q = q.clone()
	q.PageSize = size
	q.Page = 1
	return q
}

// WithPage moves to another page without touching anything else.
func (q Query) WithPage(page int) Query {
	q = q.clone()
	q.Page = page
	return q
}

// Normalized returns q with page and page size clamped to usable values.
func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortDirection == "" {
		q.SortDirection = Asc
	}
	return q
}

// Less orders two rows ascending.
type Less[T any] func(a, b T) bool

// Spec declares which fields of T take part in each operation.
type Spec[T any] struct {
	// SearchFields are matched case-insensitively by substring.
	SearchFields []func(T) string
	// Filters are categorical fields keyed by the query filter name.
	Filters map[string]func(T) string
	// Sorters are keyed by the query sort key.
	Sorters map[string]Less[T]
}

// Page is one slice of the processed list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Apply runs the full pipeline. rows is never modified.
func Apply[T any](rows []T, q Query, spec Spec[T]) Page[T] {
	q = q.Normalized()
	all := Process(rows, q, spec)

	total := len(all)
	totalPages := (total + q.PageSize - 1) / q.PageSize

	// Pages past the end are empty. Checking the page count first keeps
	// (Page-1)*PageSize from overflowing on absurd page numbers.
	start, end := total, total
	if q.Page <= totalPages {
		start = (q.Page - 1) * q.PageSize
		end = min(start+q.PageSize, total)
	}

	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}
}

// Process searches, filters and sorts without paginating. Exports use it to
// stream every matching row.
func Process[T any](rows []T, q Query, spec Spec[T]) []T {
	out := make([]T, 0, len(rows))
	term := strings.ToLower(strings.TrimSpace(q.Search))
	for _, row := range rows {
		if term != "" && !matchesSearch(row, term, spec.SearchFields) {
			continue
		}
		if !matchesFilters(row, q.Filters, spec.Filters) {
			continue
		}
		out = append(out, row)
	}

	if less, ok := spec.Sorters[q.SortKey]; ok && less != nil {
		if q.SortDirection == Desc {
			sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
		} else {
			sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
		}
	}
	return out
}

func matchesSearch[T any](row T, term string, fields []func(T) string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(row)), term) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](row T, values map[string]string, fields map[string]func(T) string) bool {
	for key, want := range values {
		if want == "" {
			continue
		}
		f, ok := fields[key]
		if !ok {
			continue
		}
		if !strings.EqualFold(f(row), want) {
			return false
		}
	}
	return true
}

// ByString orders by a text field, case-insensitively.
func ByString[T any](field func(T) string) Less[T] {
	return func(a, b T) bool {
		return strings.ToLower(field(a)) < strings.ToLower(field(b))
	}
}

func ByInt[T any](field func(T) int) Less[T] {
	return func(a, b T) bool { return field(a) < field(b) }
}

func ByFloat[T any](field func(T) float64) Less[T] {
	return func(a, b T) bool { return field(a) < field(b) }
}

func ByTime[T any](field func(T) time.Time) Less[T] {
	return func(a, b T) bool { return field(a).Before(field(b)) }
}
