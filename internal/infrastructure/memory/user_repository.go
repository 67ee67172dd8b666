package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/user"
)

// UserRepository indexes users by id and by email.
type UserRepository struct {
	mu      sync.RWMutex
	nextID  int
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		nextID:  1,
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	_ = ctx
	if u == nil {
		return nil, fmt.Errorf("user repository: user is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byEmail[u.Email]; exists {
		return cloneUser(r.byID[id]), domain.ErrEmailConflict
	}

	stored := cloneUser(u)
	stored.ID = fmt.Sprintf("u%d", r.nextID)
	r.nextID++

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return cloneUser(stored), nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	_ = ctx
	if email == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta float64) (*domain.User, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Balance += delta
	return cloneUser(u), nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
