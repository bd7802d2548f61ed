package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

var bucketUsers = []byte("users")

// BoltRepository stores one JSON record per user, keyed by the big-endian id,
// so a cursor walk returns the collection in id order.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(path string) (*BoltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: storeOpenTimeout})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("%s: %w", path, ErrStoreLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUsers); err != nil {
			return fmt.Errorf("failed to create users bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *BoltRepository) All(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := []domain.User{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b == nil {
			return errors.New("users bucket not found")
		}
		return b.ForEach(func(k, v []byte) error {
			var u domain.User
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("failed to decode user %d: %w", binary.BigEndian.Uint64(k), err)
			}
			users = append(users, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *BoltRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return domain.User{}, err
	}
	return findByUsername(users, username)
}

// Save swaps the bucket contents inside a single transaction. Records are
// keyed by id, so a collection with a repeated id is rejected before the
// bucket is touched.
func (r *BoltRepository) Save(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUniqueIDs(users); err != nil {
		metrics.UserStoreWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketUsers); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to reset users bucket: %w", err)
		}
		b, err := tx.CreateBucket(bucketUsers)
		if err != nil {
			return fmt.Errorf("failed to create users bucket: %w", err)
		}

		for _, u := range users {
			data, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("failed to encode user %d: %w", u.ID, err)
			}
			if err := b.Put(userKey(u.ID), data); err != nil {
				return fmt.Errorf("failed to put user %d: %w", u.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.UserStoreWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.UserStoreWritesTotal.WithLabelValues("ok").Inc()
	return nil
}

func userKey(id domain.ID) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
