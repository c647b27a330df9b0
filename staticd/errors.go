package staticd

import (
	"errors"

	"dqx0.com/go/staticd/staticd/internal/docroot"
	"dqx0.com/go/staticd/staticd/internal/http1"
)

var (
	ErrServerClosed  = errors.New("staticd: server closed")
	ErrInvalidConfig = errors.New("staticd: invalid config")

	// Protocol errors; each ends the connection with a 4xx response.
	ErrMalformedRequestLine = http1.ErrMalformedRequestLine
	ErrMalformedHeader      = http1.ErrMalformedHeader
	ErrHeaderTooLarge       = http1.ErrHeaderTooLarge

	// Resource errors.
	ErrNotFound  = docroot.ErrNotFound
	ErrForbidden = docroot.ErrForbidden
)

// statusForError maps a parse or resolution failure to a status code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrHeaderTooLarge):
		return StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, ErrMalformedRequestLine), errors.Is(err, ErrMalformedHeader):
		return StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return StatusForbidden
	default:
		return StatusNotFound
	}
}
