package service

import (
	"context"
	"math/rand/v2"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/recipe/domain"
	"github.com/AlibekovAA/dining-quiz/backend/internal/recipe/repository"
)

type RecipeService struct {
	repo repository.Repository
	intn func(n int) int
	log  *logger.Logger
}

func NewRecipeService(repo repository.Repository, log *logger.Logger) *RecipeService {
	return &RecipeService{
		repo: repo,
		intn: rand.IntN,
		log:  log,
	}
}

// WithPicker replaces the random index source. Tests use it to make Random
// and RandomIngredient deterministic.
func (s *RecipeService) WithPicker(intn func(n int) int) *RecipeService {
	s.intn = intn
	return s
}

func (s *RecipeService) All(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.repo.All(ctx)
	if err != nil {
		recordLookup("all", "error")
		return nil, err
	}
	recordLookup("all", "ok")
	return recipes, nil
}

func (s *RecipeService) GetByName(ctx context.Context, name string) (domain.Recipe, error) {
	recipes, err := s.repo.All(ctx)
	if err != nil {
		recordLookup("by_name", "error")
		return domain.Recipe{}, err
	}

	for _, r := range recipes {
		if r.Name == name {
			recordLookup("by_name", "ok")
			return r, nil
		}
	}

	s.log.WithFields(ctx, logger.Fields{
		"recipe": name,
		"action": "recipe_not_found",
	}).Debug("recipe not found")
	recordLookup("by_name", "not_found")
	return domain.Recipe{}, ErrRecipeNotFound
}

func (s *RecipeService) ListByHall(ctx context.Context, hall string) ([]domain.Recipe, error) {
	recipes, err := s.repo.All(ctx)
	if err != nil {
		recordLookup("by_hall", "error")
		return nil, err
	}

	out := make([]domain.Recipe, 0)
	for _, r := range recipes {
		if r.DiningHall == hall {
			out = append(out, r)
		}
	}
	recordLookup("by_hall", "ok")
	return out, nil
}

func (s *RecipeService) Random(ctx context.Context) (domain.Recipe, error) {
	recipes, err := s.repo.All(ctx)
	if err != nil {
		recordLookup("random", "error")
		return domain.Recipe{}, err
	}
	if len(recipes) == 0 {
		recordLookup("random", "empty")
		return domain.Recipe{}, ErrEmptyCatalog
	}

	recordLookup("random", "ok")
	return recipes[s.intn(len(recipes))], nil
}

func (s *RecipeService) AllIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	recipes, err := s.repo.All(ctx)
	if err != nil {
		recordLookup("ingredients", "error")
		return nil, err
	}

	out := make([]domain.Ingredient, 0)
	for _, r := range recipes {
		out = append(out, r.Ingredients...)
	}
	recordLookup("ingredients", "ok")
	return out, nil
}

// RandomIngredient picks a recipe first and then one of its ingredients, so
// recipes with few ingredients weigh as much as long ones.
func (s *RecipeService) RandomIngredient(ctx context.Context) (domain.Ingredient, error) {
	recipe, err := s.Random(ctx)
	if err != nil {
		return domain.Ingredient{}, err
	}
	if len(recipe.Ingredients) == 0 {
		s.log.WithFields(ctx, logger.Fields{
			"recipe": recipe.Name,
			"action": "recipe_without_ingredients",
		}).Warn("random ingredient: picked recipe has no ingredients")
		recordLookup("random_ingredient", "empty")
		return domain.Ingredient{}, ErrEmptyCatalog
	}

	recordLookup("random_ingredient", "ok")
	return recipe.Ingredients[s.intn(len(recipe.Ingredients))], nil
}

func recordLookup(operation, result string) {
	metrics.RecipeLookupsTotal.WithLabelValues(operation, result).Inc()
}
