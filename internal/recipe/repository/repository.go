package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlibekovAA/dining-quiz/backend/internal/recipe/domain"
)

type Repository interface {
	All(ctx context.Context) ([]domain.Recipe, error)
}

// StaticRepository serves a catalog loaded once at startup.
type StaticRepository struct {
	recipes []domain.Recipe
}

func NewStaticRepository(recipes ...domain.Recipe) *StaticRepository {
	return &StaticRepository{recipes: append([]domain.Recipe(nil), recipes...)}
}

func LoadJSONFile(path string) (*StaticRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes file: %w", err)
	}

	var recipes []domain.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to decode recipes file %s: %w", path, err)
	}
	return NewStaticRepository(recipes...), nil
}

func (r *StaticRepository) All(ctx context.Context) ([]domain.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Recipe(nil), r.recipes...), nil
}
