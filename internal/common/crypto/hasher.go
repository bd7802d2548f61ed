package crypto

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sync/semaphore"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

var ErrDigestMismatch = errors.New("password digest mismatch")

// PasswordHasher derives and checks salted password digests. Salts and
// digests are hex strings, the format kept in the user store.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Derive(ctx context.Context, password, salt string) (string, error)
	Verify(ctx context.Context, password, salt, digest string) error
}

// PBKDF2Hasher runs PBKDF2-HMAC-SHA512. Derivations are CPU bound, so at most
// `workers` of them run at once; the rest wait for a slot or for ctx.
type PBKDF2Hasher struct {
	iterations int
	keyLen     int
	saltSize   int
	workers    *semaphore.Weighted
}

func NewPBKDF2Hasher(iterations, keyLen, saltSize, workers int) *PBKDF2Hasher {
	if workers <= 0 {
		workers = 1
	}
	return &PBKDF2Hasher{
		iterations: iterations,
		keyLen:     keyLen,
		saltSize:   saltSize,
		workers:    semaphore.NewWeighted(int64(workers)),
	}
}

func NewDefaultPBKDF2Hasher() *PBKDF2Hasher {
	return NewPBKDF2Hasher(
		constants.PBKDF2Iterations,
		constants.PBKDF2KeyLength,
		constants.SaltSize,
		runtime.GOMAXPROCS(0),
	)
}

func (h *PBKDF2Hasher) GenerateSalt() (string, error) {
	b := make([]byte, h.saltSize)
	if _, err := rand.Read(b); err != nil {
		return "", commonerrors.ErrInternalCrypto.WithCause(fmt.Errorf("read random salt: %w", err))
	}
	return hex.EncodeToString(b), nil
}

// Derive uses the hex salt text itself as the PBKDF2 salt, which keeps
// digests compatible with existing users.json files.
func (h *PBKDF2Hasher) Derive(ctx context.Context, password, salt string) (string, error) {
	if h.keyLen <= 0 || h.iterations <= 0 {
		return "", commonerrors.ErrInternalCrypto.WithCause(
			fmt.Errorf("invalid pbkdf2 parameters: iterations=%d key_len=%d", h.iterations, h.keyLen),
		)
	}

	if err := h.workers.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.workers.Release(1)

	start := time.Now()
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, h.keyLen, sha512.New)
	metrics.PasswordHashDurationSeconds.Observe(time.Since(start).Seconds())

	return hex.EncodeToString(key), nil
}

func (h *PBKDF2Hasher) Verify(ctx context.Context, password, salt, digest string) error {
	computed, err := h.Derive(ctx, password, salt)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) != 1 {
		return ErrDigestMismatch
	}
	return nil
}
