package repository

import (
	"context"
	"sync"

	"github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	users []domain.User
}

func NewMemoryRepository(users ...domain.User) *MemoryRepository {
	return &MemoryRepository{users: cloneUsers(users)}
}

func (r *MemoryRepository) All(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneUsers(r.users), nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findByUsername(r.users, username)
}

func (r *MemoryRepository) Save(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.users = cloneUsers(users)
	r.mu.Unlock()
	return nil
}
