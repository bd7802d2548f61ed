package http

import (
	"context"
	"net/http"

	commonhttp "github.com/AlibekovAA/dining-quiz/backend/internal/common/http"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/recipe/domain"
)

type Catalog interface {
	All(ctx context.Context) ([]domain.Recipe, error)
	GetByName(ctx context.Context, name string) (domain.Recipe, error)
	ListByHall(ctx context.Context, hall string) ([]domain.Recipe, error)
	Random(ctx context.Context) (domain.Recipe, error)
	AllIngredients(ctx context.Context) ([]domain.Ingredient, error)
	RandomIngredient(ctx context.Context) (domain.Ingredient, error)
}

type Handler struct {
	catalog Catalog
	log     *logger.Logger
}

func NewHandler(catalog Catalog, log *logger.Logger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /recipes", h.all)
	mux.HandleFunc("GET /recipes/random", h.random)
	mux.HandleFunc("GET /recipes/hall/{hall}", h.byHall)
	mux.HandleFunc("GET /recipes/{name}", h.byName)
	mux.HandleFunc("GET /ingredients", h.ingredients)
	mux.HandleFunc("GET /ingredients/random", h.randomIngredient)
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.catalog.All(r.Context())
	h.respond(w, r, recipes, err)
}

func (h *Handler) random(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.catalog.Random(r.Context())
	h.respond(w, r, recipe, err)
}

func (h *Handler) byHall(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.catalog.ListByHall(r.Context(), r.PathValue("hall"))
	h.respond(w, r, recipes, err)
}

func (h *Handler) byName(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.catalog.GetByName(r.Context(), r.PathValue("name"))
	h.respond(w, r, recipe, err)
}

func (h *Handler) ingredients(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.AllIngredients(r.Context())
	h.respond(w, r, list, err)
}

func (h *Handler) randomIngredient(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.catalog.RandomIngredient(r.Context())
	h.respond(w, r, ingredient, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, body)
}
