// Package pagination extracts and clamps listing parameters from requests.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	// DefaultLimit is used when the caller does not ask for a page size.
	DefaultLimit = 50
	// MaxLimit caps the page size regardless of what the caller asks for.
	MaxLimit = 50
)

// Params holds listing parameters extracted from a request.
type Params struct {
	Limit int
}

// FromContext extracts the limit from the echo context, applying the
// default and the cap.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return Params{Limit: Clamp(limit)}
}

// Clamp normalizes a requested limit: non-positive values get the default,
// oversized values get the cap.
func Clamp(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
