package assignment

import (
	"errors"
	"fmt"

	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domproduct "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
)

var (
	ErrProductNotFound    = domproduct.ErrNotFound
	ErrAccountNotFound    = domaccount.ErrNotFound
	ErrAccountIDRequired  = errors.New("accountId is required")
	ErrAccountQueryNeeded = errors.New("accountId query is required")
	ErrLedger             = errors.New("assignment: ledger failure")
)

// DependencyError reports that the account directory could not confirm the
// account. Status is the upstream HTTP status, or 0 for transport failures.
type DependencyError struct {
	Status int
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("assignment: account directory unavailable: %v", e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Message is the text surfaced to callers: the upstream message when there
// is one, otherwise the underlying error.
func (e *DependencyError) Message() string {
	return ErrorMessage(e.Err)
}

// ErrorMessage extracts a caller-facing message from a directory error.
func ErrorMessage(err error) string {
	var up *domaccount.UpstreamError
	if errors.As(err, &up) {
		return up.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
