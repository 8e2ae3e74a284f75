// Package pagination reads limit/offset query parameters for list endpoints.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Params is one page of a newest-first listing.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads ?limit and ?offset. A missing or non-positive limit
// becomes defaultLimit; anything above maxLimit is clamped to it.
func FromContext(c echo.Context, defaultLimit, maxLimit int) Params {
	return Clamp(atoi(c.QueryParam("limit")), atoi(c.QueryParam("offset")), defaultLimit, maxLimit)
}

// Clamp normalises raw values the same way FromContext does.
func Clamp(limit, offset, defaultLimit, maxLimit int) Params {
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// HasNext reports whether a page that came back full may have a successor.
func (p Params) HasNext(returned int) bool {
	return returned >= p.Limit
}

// Next returns the following page.
func (p Params) Next() Params {
	return Params{Limit: p.Limit, Offset: p.Offset + p.Limit}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
