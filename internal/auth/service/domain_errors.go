package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
)

var (
	ErrNoSuchUser = commonerrors.NewDomainError(
		"NO_SUCH_USER",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"No such user",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid username or password",
	)

	ErrUsernameTaken = commonerrors.NewDomainError(
		"USERNAME_TAKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Username already taken",
	)
)
