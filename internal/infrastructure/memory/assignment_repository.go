package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/assignment"
)

// AssignmentRepository is the in-memory assignment ledger.
type AssignmentRepository struct {
	mu        sync.RWMutex
	nextID    int
	byAccount map[string][]domain.Assignment
	now       func() time.Time
}

func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{
		nextID:    1,
		byAccount: make(map[string][]domain.Assignment),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *AssignmentRepository) Append(ctx context.Context, accountID, productID string) (*domain.Assignment, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	a := domain.Assignment{
		ID:        fmt.Sprintf("as%d", r.nextID),
		AccountID: accountID,
		ProductID: productID,
		CreatedAt: r.now(),
	}
	r.nextID++
	r.byAccount[accountID] = append(r.byAccount[accountID], a)
	return &a, nil
}

func (r *AssignmentRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Assignment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.byAccount[accountID]
	out := make([]domain.Assignment, len(history))
	copy(out, history)
	return out, nil
}
