package bootstrap_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/config"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
)

const recipes = `[
  {"name": "Pancakes", "calories": 590, "diningHall": "Case", "ingredients": [{"name": "Batter"}]}
]`

func newApp(t *testing.T, requireSession bool) *bootstrap.App {
	t.Helper()
	dir := t.TempDir()
	recipesFile := filepath.Join(dir, "foodItems.json")
	require.NoError(t, os.WriteFile(recipesFile, []byte(recipes), 0o644))

	cfg := config.AppConfig{
		HTTPPort:            "0",
		SessionSecret:       "0123456789abcdef0123456789abcdef",
		SessionTTL:          time.Hour,
		UsersFile:           filepath.Join(dir, "users.json"),
		RecipesFile:         recipesFile,
		RequestTimeout:      5 * time.Second,
		StatsRequireSession: requireSession,
		HashWorkers:         2,
	}

	app, err := bootstrap.New(cfg, logger.Discard(), bootstrap.Dependencies{
		Hasher: commoncrypto.NewPBKDF2Hasher(1000, 64, 30, 2),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_FullGameFlowUnderAPIPrefix(t *testing.T) {
	app := newApp(t, false)

	res := apitest.New().
		Handler(app.Handler).
		Post("/api/users/register").
		JSON(`{"username":"alice","password":"pw123"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.username", "alice")).
		End()

	var token string
	for _, c := range res.Response.Cookies() {
		if c.Name == constants.SessionCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	for i := 0; i < 3; i++ {
		apitest.New().
			Handler(app.Handler).
			Put("/api/user/g1w").
			JSON(`{"username":"alice"}`).
			Expect(t).
			Status(http.StatusOK).
			End()
	}

	apitest.New().
		Handler(app.Handler).
		Get("/api/users/current").
		Cookie(constants.SessionCookieName, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.game1Wins", float64(3))).
		Assert(jsonpath.Equal("$.gamesPlayed", float64(3))).
		Assert(jsonpath.Equal("$.game1Guesses", float64(3))).
		End()

	data, err := os.ReadFile(app.Config.UsersFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"game1Wins": 3`)
	assert.Contains(t, string(data), `"salt"`)
}

func TestApp_RoutesAtRootAndPrefix(t *testing.T) {
	app := newApp(t, false)

	for _, prefix := range []string{"", "/api"} {
		apitest.New().
			Handler(app.Handler).
			Get(prefix + "/recipes/Pancakes").
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal("$.diningHall", "Case")).
			End()

		apitest.New().
			Handler(app.Handler).
			Get(prefix + "/health").
			Expect(t).
			Status(http.StatusOK).
			Body(`{"status":"ok"}`).
			End()
	}
}

func TestApp_UnknownUserMessagesDiffer(t *testing.T) {
	app := newApp(t, false)

	apitest.New().
		Handler(app.Handler).
		Post("/users/login").
		JSON(`{"username":"ghost","password":"pw"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "No such user")).
		End()

	apitest.New().
		Handler(app.Handler).
		Put("/user/g1l").
		JSON(`{"username":"ghost"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "No such user")).
		End()

	apitest.New().
		Handler(app.Handler).
		Get("/users/current").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "Not authenticated")).
		End()
}

func TestApp_StatsRequireSession(t *testing.T) {
	app := newApp(t, true)

	apitest.New().
		Handler(app.Handler).
		Put("/user/g1w").
		JSON(`{"username":"alice"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestApp_MetricsEndpoint(t *testing.T) {
	app := newApp(t, false)

	apitest.New().
		Handler(app.Handler).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		End()

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApp_StartBackgroundStopsWithContext(t *testing.T) {
	app := newApp(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	app.StartBackground(ctx)
	cancel()
}

func TestNew_BadRecipesFile(t *testing.T) {
	cfg := config.AppConfig{
		SessionSecret: "0123456789abcdef0123456789abcdef",
		UsersFile:     filepath.Join(t.TempDir(), "users.json"),
		RecipesFile:   filepath.Join(t.TempDir(), "missing.json"),
	}

	_, err := bootstrap.New(cfg, logger.Discard(), bootstrap.Dependencies{})
	assert.Error(t, err)
}

func TestApp_BoltUserStore(t *testing.T) {
	dir := t.TempDir()
	recipesFile := filepath.Join(dir, "foodItems.json")
	require.NoError(t, os.WriteFile(recipesFile, []byte(recipes), 0o644))

	cfg := config.AppConfig{
		SessionSecret:  "0123456789abcdef0123456789abcdef",
		SessionTTL:     time.Hour,
		UsersStore:     config.UsersStoreBolt,
		UsersBoltFile:  filepath.Join(dir, "users.db"),
		RecipesFile:    recipesFile,
		RequestTimeout: 5 * time.Second,
		HashWorkers:    2,
	}

	app, err := bootstrap.New(cfg, logger.Discard(), bootstrap.Dependencies{
		Hasher: commoncrypto.NewPBKDF2Hasher(1000, 64, 30, 2),
	})
	require.NoError(t, err)

	apitest.New().
		Handler(app.Handler).
		Post("/users/register").
		JSON(`{"username":"alice","password":"pw123"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(app.Handler).
		Put("/user/g1w").
		JSON(`{"username":"alice"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	require.NoError(t, app.Close())

	repo, err := bootstrap.OpenUserRepository(cfg)
	require.NoError(t, err)
	defer func() { _ = repo.(io.Closer).Close() }()

	u, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Game1Wins)
	assert.NotEmpty(t, u.PasswordDigest)
}
