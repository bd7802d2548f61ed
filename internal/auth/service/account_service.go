package service

import (
	"context"
	"errors"
	"sync"

	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/dining-quiz/backend/internal/user/repository"
)

const (
	statGame1Win   = "game1_win"
	statGame1Guess = "game1_guess"
)

// AccountService owns every read-modify-write of the user collection. The
// store is rewritten whole on each mutation, so mutations are serialized on
// mu; password hashing stays outside the lock.
type AccountService struct {
	repo   userrepo.Repository
	hasher commoncrypto.PasswordHasher
	log    *logger.Logger
	mu     sync.Mutex
}

func NewAccountService(repo userrepo.Repository, hasher commoncrypto.PasswordHasher, log *logger.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, username, password string) (userdomain.Profile, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "register_username_exists",
		}).Warn("register failed: already exists")
		recordRegistration("duplicate")
		return userdomain.Profile{}, ErrUsernameTaken
	} else if !errors.Is(err, userrepo.ErrUserNotFound) {
		recordRegistration("error")
		return userdomain.Profile{}, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "register_salt_failed",
		}).Errorf("register failed: salt error: %v", err)
		recordRegistration("error")
		return userdomain.Profile{}, hashError(err)
	}

	digest, err := s.hasher.Derive(ctx, password, salt)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		recordRegistration("error")
		return userdomain.Profile{}, hashError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.All(ctx)
	if err != nil {
		recordRegistration("error")
		return userdomain.Profile{}, err
	}
	for _, u := range users {
		if u.Username == username {
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"action":   "register_username_exists",
			}).Warn("register failed: taken while hashing")
			recordRegistration("duplicate")
			return userdomain.Profile{}, ErrUsernameTaken
		}
	}

	user := userdomain.User{
		ID:             userdomain.ID(len(users)),
		Username:       username,
		Avatar:         userdomain.AvatarURL(username),
		Salt:           salt,
		PasswordDigest: digest,
	}

	if err := s.save(ctx, append(users, user)); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "register_save_failed",
		}).Errorf("register failed: %v", err)
		recordRegistration("error")
		return userdomain.Profile{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"user_id":  int(user.ID),
		"action":   "register_success",
	}).Info("register success")
	recordRegistration("success")

	return user.Profile(), nil
}

func (s *AccountService) VerifyCredentials(ctx context.Context, username, password string) (userdomain.Profile, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"action":   "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"action":   "login_user_not_found",
			}).Warn("login failed: user not found")
			recordLogin("no_such_user")
			return userdomain.Profile{}, ErrNoSuchUser
		}
		recordLogin("error")
		return userdomain.Profile{}, err
	}

	if err := s.hasher.Verify(ctx, password, user.Salt, user.PasswordDigest); err != nil {
		if errors.Is(err, commoncrypto.ErrDigestMismatch) {
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"action":   "login_invalid_password",
			}).Warn("login failed: invalid password")
			recordLogin("invalid_credentials")
			return userdomain.Profile{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "login_hash_failed",
		}).Errorf("login failed: password hash error: %v", err)
		recordLogin("error")
		return userdomain.Profile{}, hashError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"user_id":  int(user.ID),
		"action":   "login_success",
	}).Info("login success")
	recordLogin("success")

	return user.Profile(), nil
}

func (s *AccountService) CurrentUser(ctx context.Context, username string) (userdomain.Profile, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.Profile{}, ErrNoSuchUser
		}
		return userdomain.Profile{}, err
	}
	return user.Profile(), nil
}

func (s *AccountService) IncrementGame1Win(ctx context.Context, username string) (userdomain.Profile, error) {
	return s.updateStats(ctx, username, statGame1Win, func(u *userdomain.User) {
		u.Game1Wins++
		u.GamesPlayed++
		u.Game1Guesses++
	})
}

func (s *AccountService) IncrementGame1Guess(ctx context.Context, username string) (userdomain.Profile, error) {
	return s.updateStats(ctx, username, statGame1Guess, func(u *userdomain.User) {
		u.Game1Guesses++
	})
}

func (s *AccountService) updateStats(
	ctx context.Context,
	username string,
	kind string,
	apply func(u *userdomain.User),
) (userdomain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.All(ctx)
	if err != nil {
		return userdomain.Profile{}, err
	}

	idx := -1
	for i := range users {
		if users[i].Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"kind":     kind,
			"action":   "stats_user_not_found",
		}).Warn("stat update failed: user not found")
		return userdomain.Profile{}, ErrNoSuchUser
	}

	apply(&users[idx])

	if err := s.save(ctx, users); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"kind":     kind,
			"action":   "stats_save_failed",
		}).Errorf("stat update failed: %v", err)
		return userdomain.Profile{}, err
	}

	recordStatUpdate(kind)
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"kind":     kind,
		"action":   "stats_updated",
	}).Debug("stat updated")

	return users[idx].Profile(), nil
}

func (s *AccountService) save(ctx context.Context, users []userdomain.User) error {
	if err := s.repo.Save(ctx, users); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return commonerrors.ErrStoreWriteFailure.WithCause(err)
	}
	return nil
}

func hashError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return commonerrors.ErrInternalCrypto.WithCause(err)
}
