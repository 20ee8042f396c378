package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Structural errors: the caller asked for chunk data the payload does
	// not describe. Both are raised before any network traffic.
	ErrNoChunkInfo = fmt.Errorf("payload carries no chunk descriptor")
	ErrChunkIndex  = fmt.Errorf("chunk index out of range")
)

// Error is a non-2xx response from the data API. Body holds the normalized
// response payload: decoded JSON when the body parses, raw text otherwise.
type Error struct {
	StatusCode int
	Status     string
	Body       any
}

func (e *Error) Error() string {
	return fmt.Sprintf("api request failed: %s", e.Status)
}

// IsUnauthorized reports whether err is an [*Error] with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
