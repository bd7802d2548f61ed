package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcleanup "github.com/AlibekovAA/dining-quiz/backend/internal/auth/cleanup"
	authhttp "github.com/AlibekovAA/dining-quiz/backend/internal/auth/http"
	authservice "github.com/AlibekovAA/dining-quiz/backend/internal/auth/service"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/clock"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/config"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/dining-quiz/backend/internal/common/http"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	recipehttp "github.com/AlibekovAA/dining-quiz/backend/internal/recipe/http"
	reciperepo "github.com/AlibekovAA/dining-quiz/backend/internal/recipe/repository"
	recipeservice "github.com/AlibekovAA/dining-quiz/backend/internal/recipe/service"
	userhttp "github.com/AlibekovAA/dining-quiz/backend/internal/user/http"
	userrepo "github.com/AlibekovAA/dining-quiz/backend/internal/user/repository"
)

const serviceName = "dining-quiz"

type App struct {
	Config      config.AppConfig
	Log         *logger.Logger
	UserRepo    userrepo.Repository
	Accounts    *authservice.AccountService
	Tokens      *authservice.TokenIssuer
	Revoked     *authservice.RevokedTokenCache
	Recipes     *recipeservice.RecipeService
	RateLimiter *commonhttp.StrictRateLimiter
	Handler     http.Handler

	closers []io.Closer
}

// Dependencies lets callers swap the pieces that touch the outside world.
// Zero fields fall back to the file-backed and real-clock defaults.
type Dependencies struct {
	UserRepo userrepo.Repository
	Recipes  reciperepo.Repository
	Hasher   commoncrypto.PasswordHasher
	Clock    clock.Clock
}

func NewFromEnv() (*App, error) {
	if err := config.LoadDotEnv(config.EnvFile()); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, serviceName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, log, Dependencies{})
}

func New(cfg config.AppConfig, log *logger.Logger, deps Dependencies) (*App, error) {
	var closers []io.Closer
	if deps.UserRepo == nil {
		repo, err := OpenUserRepository(cfg)
		if err != nil {
			return nil, err
		}
		if c, ok := repo.(io.Closer); ok {
			closers = append(closers, c)
		}
		deps.UserRepo = repo
	}
	if deps.Recipes == nil {
		repo, err := reciperepo.LoadJSONFile(cfg.RecipesFile)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to load recipe catalog: %w", err)
		}
		deps.Recipes = repo
	}
	if deps.Hasher == nil {
		deps.Hasher = commoncrypto.NewPBKDF2Hasher(
			constants.PBKDF2Iterations,
			constants.PBKDF2KeyLength,
			constants.SaltSize,
			cfg.HashWorkers,
		)
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}

	revoked := authservice.NewRevokedTokenCache(deps.Clock)
	tokens := authservice.NewTokenIssuer(
		cfg.SessionSecret,
		commoncrypto.NewUUIDGenerator(),
		cfg.SessionTTL,
		deps.Clock,
		revoked,
	)
	accounts := authservice.NewAccountService(deps.UserRepo, deps.Hasher, log)
	recipes := recipeservice.NewRecipeService(deps.Recipes, log)

	app := &App{
		Config:      cfg,
		Log:         log,
		UserRepo:    deps.UserRepo,
		Accounts:    accounts,
		Tokens:      tokens,
		Revoked:     revoked,
		Recipes:     recipes,
		RateLimiter: commonhttp.NewStrictRateLimiter(cfg.TrustProxyHeaders),
		closers:     closers,
	}
	app.Handler = app.buildHandler()

	log.WithFields(context.Background(), logger.Fields{
		"users_store":           cfg.UsersStore,
		"users_file":            cfg.UsersFile,
		"recipes_file":          cfg.RecipesFile,
		"stats_require_session": cfg.StatsRequireSession,
		"trust_proxy_headers":   cfg.TrustProxyHeaders,
		"hash_workers":          cfg.HashWorkers,
		"action":                "app_initialized",
	}).Info("application initialized")

	return app, nil
}

// OpenUserRepository opens the user store named by cfg.UsersStore.
func OpenUserRepository(cfg config.AppConfig) (userrepo.Repository, error) {
	switch cfg.UsersStore {
	case config.UsersStoreBolt:
		repo, err := userrepo.NewBoltRepository(cfg.UsersBoltFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open user store: %w", err)
		}
		return repo, nil
	default:
		repo, err := userrepo.NewJSONFileRepository(cfg.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open user store: %w", err)
		}
		return repo, nil
	}
}

// Close releases the stores New opened itself.
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) buildHandler() http.Handler {
	routes := http.NewServeMux()
	routes.HandleFunc("GET /health", commonhttp.HealthHandler(a.Log,
		commonhttp.HealthCheck{Name: "users", Probe: func(ctx context.Context) error {
			_, err := a.UserRepo.All(ctx)
			return err
		}},
		commonhttp.HealthCheck{Name: "recipes", Probe: func(ctx context.Context) error {
			_, err := a.Recipes.Random(ctx)
			return err
		}},
	))

	authhttp.NewHandler(a.Accounts, a.Tokens, a.Config.RequestTimeout, a.Log).Register(routes)
	userhttp.NewHandler(a.Accounts, a.Tokens, userhttp.Options{
		RequireSession: a.Config.StatsRequireSession,
		Timeout:        a.Config.RequestTimeout,
	}, a.Log).Register(routes)
	recipehttp.NewHandler(a.Recipes, a.Log).Register(routes)

	mux := http.NewServeMux()
	mux.Handle("/", routes)
	mux.Handle(constants.APIPrefix+"/", http.StripPrefix(constants.APIPrefix, routes))
	mux.Handle("GET /metrics", promhttp.Handler())

	return commonhttp.BuildBaseHandler(a.Log, a.RateLimiter.Middleware(mux))
}

// StartBackground runs the periodic sweepers until ctx is done.
func (a *App) StartBackground(ctx context.Context) {
	go authcleanup.StartCleanup(ctx, a.Revoked, constants.RevokedTokenCleanupInterval, a.Log, "revoked_tokens")
	go authcleanup.StartCleanup(ctx, a.RateLimiter, constants.RateLimitCleanupInterval, a.Log, "rate_limit_buckets")
}
