// Package validation holds the field-level error map returned by the
// request validators of every domain package.
package validation

import (
	"sort"
	"strings"
)

// Errors maps a JSON field name to a human-readable message. A nil or empty
// map means the input is valid.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field, keeping the first message if one exists.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Err returns e as an error, or nil when there are no entries.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
