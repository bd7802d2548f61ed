package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AlibekovAA/dining-quiz/backend/internal/auth/service"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/dining-quiz/backend/internal/user/repository"
)

func TestAccountService_CreateAccount_Success(t *testing.T) {
	svc, repo := setupAccountService(t)
	ctx := context.Background()

	profile, err := svc.CreateAccount(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if profile.ID != 0 {
		t.Errorf("expected id 0, got %d", profile.ID)
	}
	if profile.Username != "alice" {
		t.Errorf("expected username alice, got %s", profile.Username)
	}
	if profile.GamesPlayed != 0 || profile.Game1Wins != 0 || profile.Game1Guesses != 0 {
		t.Errorf("expected zero counters, got %+v", profile)
	}
	if profile.Avatar != "https://robohash.org/alice?size=64x64&set=set1" {
		t.Errorf("unexpected avatar %s", profile.Avatar)
	}

	stored, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("expected stored user, got %v", err)
	}
	if len(stored.Salt) != 60 {
		t.Errorf("expected 60 hex chars of salt, got %d", len(stored.Salt))
	}
	if len(stored.PasswordDigest) != 128 {
		t.Errorf("expected 128 hex chars of digest, got %d", len(stored.PasswordDigest))
	}
}

func TestAccountService_CreateAccount_AssignsSequentialIDs(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		profile, err := svc.CreateAccount(ctx, name, "pw")
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if int(profile.ID) != i {
			t.Errorf("expected id %d for %s, got %d", i, name, profile.ID)
		}
	}
}

func TestAccountService_CreateAccount_DuplicateUsername(t *testing.T) {
	svc, repo := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateAccount(ctx, "alice", "other")
	if !errors.Is(err, service.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	users, _ := repo.All(ctx)
	if len(users) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(users))
	}
}

func TestAccountService_CreateAccount_UsernameIsCaseSensitive(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw"); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if _, err := svc.CreateAccount(ctx, "Alice", "pw"); err != nil {
		t.Fatalf("expected Alice to be a distinct user, got %v", err)
	}
}

func TestAccountService_CreateAccount_SaltFailure(t *testing.T) {
	repo := userrepo.NewMemoryRepository()
	hasher := &mockHasher{
		generateSaltFunc: func() (string, error) {
			return "", errors.New("entropy exhausted")
		},
	}
	svc := service.NewAccountService(repo, hasher, logger.Discard())

	_, err := svc.CreateAccount(context.Background(), "alice", "pw")
	if !errors.Is(err, commonerrors.ErrInternalCrypto) {
		t.Fatalf("expected ErrInternalCrypto, got %v", err)
	}

	users, _ := repo.All(context.Background())
	if len(users) != 0 {
		t.Errorf("expected no stored users, got %d", len(users))
	}
}

func TestAccountService_CreateAccount_SaveFailure(t *testing.T) {
	repo := &mockUserRepo{
		saveFunc: func(ctx context.Context, users []userdomain.User) error {
			return errors.New("disk full")
		},
	}
	svc := service.NewAccountService(repo, &mockHasher{}, logger.Discard())

	_, err := svc.CreateAccount(context.Background(), "alice", "pw")
	if !errors.Is(err, commonerrors.ErrStoreWriteFailure) {
		t.Fatalf("expected ErrStoreWriteFailure, got %v", err)
	}
}

func TestAccountService_VerifyCredentials_Success(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	profile, err := svc.VerifyCredentials(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile != created {
		t.Errorf("expected %+v, got %+v", created, profile)
	}
}

func TestAccountService_VerifyCredentials_WrongPassword(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.VerifyCredentials(ctx, "alice", "wrong")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if errors.Is(err, service.ErrNoSuchUser) {
		t.Error("existing user must never be reported as missing")
	}
}

func TestAccountService_VerifyCredentials_NoSuchUser(t *testing.T) {
	svc, _ := setupAccountService(t)

	_, err := svc.VerifyCredentials(context.Background(), "ghost", "pw")
	if !errors.Is(err, service.ErrNoSuchUser) {
		t.Fatalf("expected ErrNoSuchUser, got %v", err)
	}
}

func TestAccountService_VerifyCredentials_HashFailure(t *testing.T) {
	repo := userrepo.NewMemoryRepository(userdomain.User{Username: "alice", Salt: "s", PasswordDigest: "d"})
	hasher := &mockHasher{
		verifyFunc: func(ctx context.Context, password, salt, digest string) error {
			return errors.New("primitive failed")
		},
	}
	svc := service.NewAccountService(repo, hasher, logger.Discard())

	_, err := svc.VerifyCredentials(context.Background(), "alice", "pw")
	if !errors.Is(err, commonerrors.ErrInternalCrypto) {
		t.Fatalf("expected ErrInternalCrypto, got %v", err)
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		t.Error("crypto failure must not look like bad credentials")
	}
}

func TestAccountService_VerifyCredentials_ContextCanceled(t *testing.T) {
	repo := userrepo.NewMemoryRepository(userdomain.User{Username: "alice", Salt: "s", PasswordDigest: "d"})
	hasher := &mockHasher{
		verifyFunc: func(ctx context.Context, password, salt, digest string) error {
			return context.Canceled
		},
	}
	svc := service.NewAccountService(repo, hasher, logger.Discard())

	_, err := svc.VerifyCredentials(context.Background(), "alice", "pw")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAccountService_CurrentUser(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.IncrementGame1Guess(ctx, "alice"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	profile, err := svc.CurrentUser(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile.Game1Guesses != 1 {
		t.Errorf("expected fresh counters, got %+v", profile)
	}

	if _, err := svc.CurrentUser(ctx, "ghost"); !errors.Is(err, service.ErrNoSuchUser) {
		t.Errorf("expected ErrNoSuchUser, got %v", err)
	}
}

func TestAccountService_IncrementGame1Win_N(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 5
	var profile userdomain.Profile
	for i := 0; i < n; i++ {
		var err error
		profile, err = svc.IncrementGame1Win(ctx, "alice")
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}

	if profile.Game1Wins != n || profile.GamesPlayed != n || profile.Game1Guesses != n {
		t.Errorf("expected all three counters at %d, got %+v", n, profile)
	}
	if profile.Game2Wins != 0 || profile.Game2Guesses != 0 {
		t.Errorf("expected game 2 counters untouched, got %+v", profile)
	}
}

func TestAccountService_IncrementGame1Guess(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}

	profile, err := svc.IncrementGame1Guess(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile.Game1Guesses != 1 || profile.Game1Wins != 0 || profile.GamesPlayed != 0 {
		t.Errorf("expected only guesses incremented, got %+v", profile)
	}
}

func TestAccountService_Increment_NoSuchUser(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	if _, err := svc.IncrementGame1Win(ctx, "ghost"); !errors.Is(err, service.ErrNoSuchUser) {
		t.Errorf("win: expected ErrNoSuchUser, got %v", err)
	}
	if _, err := svc.IncrementGame1Guess(ctx, "ghost"); !errors.Is(err, service.ErrNoSuchUser) {
		t.Errorf("guess: expected ErrNoSuchUser, got %v", err)
	}
}

func TestAccountService_Increment_SaveFailure(t *testing.T) {
	repo := &mockUserRepo{
		allFunc: func(ctx context.Context) ([]userdomain.User, error) {
			return []userdomain.User{{Username: "alice"}}, nil
		},
		saveFunc: func(ctx context.Context, users []userdomain.User) error {
			return errors.New("read-only filesystem")
		},
	}
	svc := service.NewAccountService(repo, &mockHasher{}, logger.Discard())

	_, err := svc.IncrementGame1Win(context.Background(), "alice")
	if !errors.Is(err, commonerrors.ErrStoreWriteFailure) {
		t.Fatalf("expected ErrStoreWriteFailure, got %v", err)
	}
}

func TestAccountService_ConcurrentIncrements(t *testing.T) {
	svc, repo := setupAccountService(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		if _, err := svc.CreateAccount(ctx, name, "pw"); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.IncrementGame1Win(ctx, "alice"); err != nil {
				t.Errorf("alice: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.IncrementGame1Guess(ctx, "bob"); err != nil {
				t.Errorf("bob: %v", err)
			}
		}()
	}
	wg.Wait()

	alice, _ := repo.FindByUsername(ctx, "alice")
	if alice.Game1Wins != workers || alice.GamesPlayed != workers || alice.Game1Guesses != workers {
		t.Errorf("lost updates for alice: %+v", alice.Profile())
	}
	bob, _ := repo.FindByUsername(ctx, "bob")
	if bob.Game1Guesses != workers {
		t.Errorf("lost updates for bob: %+v", bob.Profile())
	}
}

func TestAccountService_ConcurrentRegistrationsOfSameName(t *testing.T) {
	svc, repo := setupAccountService(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAccount(ctx, "alice", "pw")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrUsernameTaken):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one successful registration, got %d", created)
	}

	users, _ := repo.All(ctx)
	if len(users) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(users))
	}
}

func TestAccountService_ProfileNeverCarriesSecrets(t *testing.T) {
	svc, _ := setupAccountService(t)

	profile, err := svc.CreateAccount(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"salt"`, `"password"`} {
		if strings.Contains(string(data), field) {
			t.Errorf("profile json contains %s: %s", field, data)
		}
	}
}
