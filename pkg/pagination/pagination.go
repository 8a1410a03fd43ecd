package pagination

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/pkg/listops"
)

// reserved query parameters that are never treated as filters.
var reserved = map[string]bool{
	"page":          true,
	"pageSize":      true,
	"search":        true,
	"sortKey":       true,
	"sortDirection": true,
	"export":        true,
}

// FromContext extracts list parameters from the request query string.
// Every parameter that is not reserved becomes an equality filter.
func FromContext(c echo.Context) listops.Query {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))

	q := listops.Query{
		Search:        strings.TrimSpace(c.QueryParam("search")),
		SortKey:       c.QueryParam("sortKey"),
		SortDirection: listops.ParseDirection(c.QueryParam("sortDirection")),
		Page:          page,
		PageSize:      size,
	}

	for key, values := range c.QueryParams() {
		if reserved[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		if q.Filters == nil {
			q.Filters = map[string]string{}
		}
		q.Filters[key] = values[0]
	}

	return q.Normalized()
}

// ExportFormat returns the requested export format ("csv" or "xlsx"), or
// "" when the caller wants a JSON page.
func ExportFormat(c echo.Context) string {
	switch f := strings.ToLower(c.QueryParam("export")); f {
	case "csv", "xlsx":
		return f
	}
	return ""
}
