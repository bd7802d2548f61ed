package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
)

var (
	ErrRecipeNotFound = commonerrors.NewDomainError(
		"RECIPE_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"Recipe not found",
	)

	ErrEmptyCatalog = commonerrors.NewDomainError(
		"EMPTY_CATALOG",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"recipe catalog has nothing to pick from",
	)
)
