package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrQuotaExceeded     = errors.New("generation quota exceeded")
	ErrNoCredential      = errors.New("no generation credential available")
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrEmptyResponse     = errors.New("model returned no image")
	ErrNetworkFailure    = errors.New("model request failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidRequest    = errors.New("invalid request")
)

// QuotaError carries the counter values behind a quota rejection so callers
// can show "used/limit" to the user. It unwraps to ErrQuotaExceeded.
type QuotaError struct {
	Used  int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("generation quota exceeded (%d/%d); ask an admin for more credits", e.Used, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
