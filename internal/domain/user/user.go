package user

import (
	"context"
	"errors"
	"math"
	"strings"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidUser   = errors.New("name and email are required")
	ErrInvalidAmount = errors.New("amount must be a number")
	ErrEmailConflict = errors.New("email already registered")
)

// User is an identity record. Every user doubles as an account whose
// balance can be credited or debited.
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Balance float64 `json:"-"`
}

func New(name, email string, initialBalance float64) (*User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, ErrInvalidUser
	}
	return &User{Name: name, Email: email, Balance: initialBalance}, nil
}

// ValidateAmount rejects non-finite credit amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

type Repository interface {
	// Create stores u under a fresh id, or returns ErrEmailConflict with the
	// existing user when the email is already taken.
	Create(ctx context.Context, u *User) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// AdjustBalance adds delta to the user's balance and returns the result.
	AdjustBalance(ctx context.Context, id string, delta float64) (*User, error)
}
