package v1

import (
	"net/http"
	"strconv"

	"github.com/techvault/skoop/infrastructure/api/middleware"
)

// Listing limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Pagination holds limit/offset query parameters.
type Pagination struct {
	limit  int
	offset int
}

// ParsePagination reads limit and offset from the query string.
// Malformed or negative values are rejected; limit is capped at MaxLimit.
func ParsePagination(r *http.Request) (Pagination, error) {
	p := Pagination{limit: DefaultLimit}

	limit, err := intParam(r, "limit")
	if err != nil {
		return Pagination{}, err
	}
	if limit > 0 {
		p.limit = min(limit, MaxLimit)
	}

	offset, err := intParam(r, "offset")
	if err != nil {
		return Pagination{}, err
	}
	p.offset = offset
	return p, nil
}

// Limit returns the page size.
func (p Pagination) Limit() int { return p.limit }

// Offset returns how many rows to skip.
func (p Pagination) Offset() int { return p.offset }

// intParam parses a non-negative integer query parameter, 0 when absent.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, middleware.NewAPIError(http.StatusBadRequest, name+" must be a non-negative integer", err)
	}
	return n, nil
}
