package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/dining-quiz/backend/internal/common/http"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/sessionauth"
	userdomain "github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

type statsRequest struct {
	Username string `json:"username" validate:"max=64"`
}

type Stats interface {
	IncrementGame1Win(ctx context.Context, username string) (userdomain.Profile, error)
	IncrementGame1Guess(ctx context.Context, username string) (userdomain.Profile, error)
}

type Options struct {
	// RequireSession takes the username from the session token instead of
	// trusting the request body.
	RequireSession bool
	Timeout        time.Duration
}

type Handler struct {
	stats    Stats
	resolver sessionauth.Resolver
	opts     Options
	log      *logger.Logger
}

func NewHandler(stats Stats, resolver sessionauth.Resolver, opts Options, log *logger.Logger) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRequestTimeout
	}
	return &Handler{
		stats:    stats,
		resolver: resolver,
		opts:     opts,
		log:      log,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	withTimeout := commonhttp.WithTimeout(h.opts.Timeout)

	win := http.Handler(withTimeout(h.update(h.stats.IncrementGame1Win)))
	guess := http.Handler(withTimeout(h.update(h.stats.IncrementGame1Guess)))
	if h.opts.RequireSession {
		requireSession := sessionauth.Middleware(h.resolver, h.log)
		win = requireSession(win)
		guess = requireSession(guess)
	}

	mux.Handle("PUT /user/g1w", win)
	mux.Handle("PUT /user/g1l", guess)
}

func (h *Handler) update(apply func(ctx context.Context, username string) (userdomain.Profile, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := h.username(r)
		if err != nil {
			commonhttp.HandleError(w, r, err, h.log)
			return
		}

		profile, err := apply(r.Context(), username)
		if err != nil {
			commonhttp.HandleError(w, r, err, h.log)
			return
		}

		commonhttp.WriteJSON(w, http.StatusOK, profile)
	}
}

func (h *Handler) username(r *http.Request) (string, error) {
	// An empty body names nobody: the account lookup rejects it in open mode
	// and the session supplies the name otherwise.
	var req statsRequest
	if err := commonhttp.ReadJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err := commonhttp.ValidateStruct(req); err != nil {
		return "", commonerrors.ErrValidation.WithCause(err)
	}

	if !h.opts.RequireSession {
		return req.Username, nil
	}

	claims, ok := sessionauth.FromContext(r.Context())
	if !ok {
		return "", commonerrors.ErrNotAuthenticated
	}
	if req.Username != "" && req.Username != claims.Username {
		h.log.WithFields(r.Context(), logger.Fields{
			"username":      claims.Username,
			"body_username": req.Username,
			"action":        "stats_forbidden",
		}).Warn("stat update rejected: username mismatch")
		return "", commonerrors.ErrForbidden
	}
	return claims.Username, nil
}
