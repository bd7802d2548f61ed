package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

const lockRetryDelay = 50 * time.Millisecond

// JSONFileRepository keeps the collection in memory and mirrors it to a single
// JSON array on disk. Every Save rewrites the file through a temp file and a
// rename, so readers never see a half-written collection.
//
// The in-memory copy is only valid while no other process writes the file, so
// the repository holds an exclusive lock on <path>.lock until Close.
type JSONFileRepository struct {
	path  string
	lock  *flock.Flock
	mu    sync.RWMutex
	users []domain.User
}

func NewJSONFileRepository(path string) (*JSONFileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}

	lock, err := acquireFileLock(path + ".lock")
	if err != nil {
		return nil, err
	}

	r := &JSONFileRepository{path: path, lock: lock}
	if err := r.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return r, nil
}

func acquireFileLock(path string) (*flock.Flock, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()

	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	switch {
	case errors.Is(err, context.DeadlineExceeded), err == nil && !locked:
		return nil, fmt.Errorf("%s: %w", path, ErrStoreLocked)
	case err != nil:
		return nil, fmt.Errorf("failed to lock users file: %w", err)
	}
	return lock, nil
}

func (r *JSONFileRepository) load() error {
	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return r.write(nil)
	case err != nil:
		return fmt.Errorf("failed to read users file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.users); err != nil {
			return fmt.Errorf("failed to decode users file %s: %w", r.path, err)
		}
	}
	return nil
}

// Close releases the file lock. The repository must not be used afterwards.
func (r *JSONFileRepository) Close() error {
	if r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}

func (r *JSONFileRepository) All(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneUsers(r.users), nil
}

func (r *JSONFileRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findByUsername(r.users, username)
}

func (r *JSONFileRepository) Save(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.write(users); err != nil {
		metrics.UserStoreWritesTotal.WithLabelValues("error").Inc()
		return err
	}
	r.users = cloneUsers(users)
	metrics.UserStoreWritesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (r *JSONFileRepository) write(users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp users file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp users file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp users file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace users file: %w", err)
	}
	return nil
}
