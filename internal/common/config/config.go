package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
)

var (
	ErrMissingRequiredEnv   = errors.New("missing required environment variable")
	ErrInvalidSessionSecret = errors.New("SESSION_SECRET must be at least 32 bytes")
	ErrInvalidUsersStore    = errors.New("USERS_STORE must be json or bolt")
)

const (
	UsersStoreJSON = "json"
	UsersStoreBolt = "bolt"
)

type AppConfig struct {
	HTTPPort            string
	SessionSecret       string
	SessionTTL          time.Duration
	UsersStore          string
	UsersFile           string
	UsersBoltFile       string
	RecipesFile         string
	RequestTimeout      time.Duration
	StatsRequireSession bool
	TrustProxyHeaders   bool
	HashWorkers         int
	LogDir              string
	LogLevel            string
}

// EnvFile names the optional dotenv file read before the environment.
func EnvFile() string {
	return getEnv("ENV_FILE", ".env")
}

// LoadDotEnv copies KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() (AppConfig, error) {
	secret, err := mustEnv("SESSION_SECRET")
	if err != nil {
		return AppConfig{}, err
	}

	if err := validateSessionSecret(secret); err != nil {
		return AppConfig{}, err
	}

	store := strings.ToLower(getEnv("USERS_STORE", UsersStoreJSON))
	if store != UsersStoreJSON && store != UsersStoreBolt {
		return AppConfig{}, fmt.Errorf("%w: got %q", ErrInvalidUsersStore, store)
	}

	return AppConfig{
		HTTPPort:            getEnv("HTTP_PORT", constants.DefaultHTTPPort),
		SessionSecret:       secret,
		SessionTTL:          getDurationEnv("SESSION_TTL", constants.DefaultSessionTTL),
		UsersStore:          store,
		UsersFile:           getEnv("USERS_FILE", constants.DefaultUsersFile),
		UsersBoltFile:       getEnv("USERS_BOLT_FILE", constants.DefaultUsersBoltFile),
		RecipesFile:         getEnv("RECIPES_FILE", constants.DefaultRecipesFile),
		RequestTimeout:      getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		StatsRequireSession: getBoolEnv("STATS_REQUIRE_SESSION", false),
		TrustProxyHeaders:   getBoolEnv("TRUST_PROXY_HEADERS", false),
		HashWorkers:         getIntEnv("HASH_WORKERS", runtime.GOMAXPROCS(0)),
		LogDir:              getEnv("LOG_DIR", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

func validateSessionSecret(secret string) error {
	if len(secret) < constants.SessionSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidSessionSecret, len(secret))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
