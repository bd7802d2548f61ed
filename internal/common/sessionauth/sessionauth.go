// Package sessionauth gates handlers behind a session token. The token is
// read from the session cookie, or from an Authorization bearer header when
// no cookie is present, and resolved through a Resolver. Resolved claims live
// in the request context for that request only.
package sessionauth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/dining-quiz/backend/internal/common/http"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
)

type Identity struct {
	UserID   int
	Username string
}

type Claims struct {
	Identity
	JTI       string
	ExpiresAt time.Time
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (Claims, error)
}

type contextKey string

const claimsKey contextKey = "session_claims"

func Middleware(resolver Resolver, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "session_missing",
				}).Warn("session auth failed: no credential")
				commonhttp.HandleError(w, r, commonerrors.ErrNotAuthenticated, log)
				return
			}

			claims, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "session_invalid",
				}).Warnf("session auth failed: %v", err)
				if !commonerrors.IsDomainError(err) {
					err = commonerrors.ErrInvalidToken.WithCause(err)
				}
				commonhttp.HandleError(w, r, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	raw := r.Header.Get("Authorization")
	if strings.HasPrefix(raw, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	}
	return ""
}
