package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/auth/service"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/dining-quiz/backend/internal/user/repository"
)

const testSecret = "test-secret-key-must-be-at-least-32-bytes-long"

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "jti-123", nil
}

type mockHasher struct {
	generateSaltFunc func() (string, error)
	deriveFunc       func(ctx context.Context, password, salt string) (string, error)
	verifyFunc       func(ctx context.Context, password, salt, digest string) error
}

func (m *mockHasher) GenerateSalt() (string, error) {
	if m.generateSaltFunc != nil {
		return m.generateSaltFunc()
	}
	return "salt", nil
}

func (m *mockHasher) Derive(ctx context.Context, password, salt string) (string, error) {
	if m.deriveFunc != nil {
		return m.deriveFunc(ctx, password, salt)
	}
	return "digest:" + password + ":" + salt, nil
}

func (m *mockHasher) Verify(ctx context.Context, password, salt, digest string) error {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, password, salt, digest)
	}
	if digest != "digest:"+password+":"+salt {
		return commoncrypto.ErrDigestMismatch
	}
	return nil
}

type mockUserRepo struct {
	allFunc            func(ctx context.Context) ([]userdomain.User, error)
	findByUsernameFunc func(ctx context.Context, username string) (userdomain.User, error)
	saveFunc           func(ctx context.Context, users []userdomain.User) error
}

func (m *mockUserRepo) All(ctx context.Context) ([]userdomain.User, error) {
	if m.allFunc != nil {
		return m.allFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) Save(ctx context.Context, users []userdomain.User) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, users)
	}
	return nil
}

// fastHasher runs the real derivation with a small iteration count.
func fastHasher() *commoncrypto.PBKDF2Hasher {
	return commoncrypto.NewPBKDF2Hasher(1000, 64, 30, 4)
}

func setupAccountService(t *testing.T) (*service.AccountService, *userrepo.MemoryRepository) {
	t.Helper()
	repo := userrepo.NewMemoryRepository()
	return service.NewAccountService(repo, fastHasher(), logger.Discard()), repo
}

func setupTokenIssuer(t *testing.T) (*service.TokenIssuer, *clock.MockClock, *service.RevokedTokenCache) {
	t.Helper()
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	revoked := service.NewRevokedTokenCache(mockClock)
	issuer := service.NewTokenIssuer(testSecret, commoncrypto.NewUUIDGenerator(), 7*24*time.Hour, mockClock, revoked)
	return issuer, mockClock, revoked
}
