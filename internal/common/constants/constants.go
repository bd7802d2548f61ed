package constants

import "time"

const (
	SessionSecretMinLength = 32

	SaltSize         = 30
	PBKDF2Iterations = 100000
	PBKDF2KeyLength  = 64

	DefaultMaxRequestSize = 1 << 20

	RevokedTokenCleanupInterval = 1 * time.Minute

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "8080"
	DefaultSessionTTL     = 7 * 24 * time.Hour
	DefaultRequestTimeout = 10 * time.Second
	DefaultUsersFile      = "data/users.json"
	DefaultUsersBoltFile  = "data/users.db"
	DefaultRecipesFile    = "data/foodItems.json"

	SessionCookieName = "session_token"
	APIPrefix         = "/api"

	RateLimitCleanupInterval           = 5 * time.Minute
	RateLimitLoginRequestsPerSecond    = 1.0
	RateLimitLoginBurst                = 10
	RateLimitRegisterRequestsPerSecond = 0.2
	RateLimitRegisterBurst             = 5
	RateLimitGeneralRequestsPerSecond  = 50.0
	RateLimitGeneralBurst              = 100

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28

	AvatarURLTemplate = "https://robohash.org/%s?size=64x64&set=set1"
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
