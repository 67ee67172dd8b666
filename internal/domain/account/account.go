// Package account describes the external account directory as seen by the
// catalog: a record that can be looked up and a balance that can be adjusted.
package account

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("account not found")

// Account is the directory's view of an account. Only the id is relied on;
// the rest is passed through for diagnostics.
type Account struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Email   string  `json:"email,omitempty"`
	Balance float64 `json:"balance"`
}

// Credit confirms a balance adjustment.
type Credit struct {
	AccountID string  `json:"accountId"`
	Amount    float64 `json:"amount"`
	Balance   float64 `json:"balance"`
}

// Directory is the outbound port to the account service. Implementations
// make a single attempt per call.
type Directory interface {
	Get(ctx context.Context, accountID string) (*Account, error)
	ApplyCredit(ctx context.Context, accountID string, amount float64) (*Credit, error)
}

// UpstreamError is a non-2xx answer from the directory other than 404 on lookup.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("account directory: upstream status %d: %s", e.Status, e.Message)
}

// TransportError covers failures to reach the directory or decode its reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("account directory: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Status
	}
	if errors.Is(err, ErrNotFound) {
		return 404
	}
	return 0
}
