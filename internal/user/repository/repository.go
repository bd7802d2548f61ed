package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

// Repository is the whole-collection user store. Save replaces every record.
type Repository interface {
	All(ctx context.Context) ([]domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Save(ctx context.Context, users []domain.User) error
}

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreLocked means another process holds the store open.
	ErrStoreLocked = errors.New("user store is locked by another process")
	ErrDuplicateID = errors.New("duplicate user id")
)

// storeOpenTimeout bounds how long opening a file-backed store waits for
// another process to let go of it.
const storeOpenTimeout = time.Second

func findByUsername(users []domain.User, username string) (domain.User, error) {
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, ErrUserNotFound
}

func cloneUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	copy(out, users)
	return out
}

func checkUniqueIDs(users []domain.User) error {
	seen := make(map[domain.ID]string, len(users))
	for _, u := range users {
		if prev, ok := seen[u.ID]; ok {
			return fmt.Errorf("%w %d: %s and %s", ErrDuplicateID, u.ID, prev, u.Username)
		}
		seen[u.ID] = u.Username
	}
	return nil
}
