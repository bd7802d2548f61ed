package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/auth/service"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/dining-quiz/backend/internal/common/http"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/sessionauth"
	userdomain "github.com/AlibekovAA/dining-quiz/backend/internal/user/domain"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type userResponse struct {
	User userdomain.Profile `json:"user"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

type Accounts interface {
	CreateAccount(ctx context.Context, username, password string) (userdomain.Profile, error)
	VerifyCredentials(ctx context.Context, username, password string) (userdomain.Profile, error)
	CurrentUser(ctx context.Context, username string) (userdomain.Profile, error)
}

type Sessions interface {
	sessionauth.Resolver
	Issue(identity sessionauth.Identity) (service.Token, error)
	Revoke(ctx context.Context, value string) (sessionauth.Claims, error)
}

type Handler struct {
	accounts Accounts
	sessions Sessions
	timeout  time.Duration
	log      *logger.Logger
}

func NewHandler(accounts Accounts, sessions Sessions, timeout time.Duration, log *logger.Logger) *Handler {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Handler{
		accounts: accounts,
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	withTimeout := commonhttp.WithTimeout(h.timeout)
	requireSession := sessionauth.Middleware(h.sessions, h.log)

	mux.HandleFunc("POST /users/login", withTimeout(h.login))
	mux.HandleFunc("POST /users/register", withTimeout(h.register))
	mux.HandleFunc("POST /users/logout", withTimeout(h.logout))
	mux.Handle("GET /users/current", requireSession(withTimeout(h.current)))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req, err := h.readCredentials(r)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	profile, err := h.accounts.VerifyCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	h.startSession(w, r, profile)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req, err := h.readCredentials(r)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	profile, err := h.accounts.CreateAccount(r.Context(), req.Username, req.Password)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	h.startSession(w, r, profile)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionauth.TokenFromRequest(r); token != "" {
		if claims, err := h.sessions.Revoke(r.Context(), token); err != nil {
			h.log.WithFields(r.Context(), logger.Fields{
				"action": "logout_revoke_skipped",
			}).Debugf("logout: token not revoked: %v", err)
		} else {
			h.log.WithFields(r.Context(), logger.Fields{
				"username": claims.Username,
				"action":   "logout_success",
			}).Info("logout success")
		}
	}

	clearSessionCookie(w, r)
	commonhttp.WriteJSON(w, http.StatusOK, logoutResponse{Success: true})
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionauth.FromContext(r.Context())
	if !ok {
		commonhttp.HandleError(w, r, commonerrors.ErrNotAuthenticated, h.log)
		return
	}

	profile, err := h.accounts.CurrentUser(r.Context(), claims.Username)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, profile)
}

// readCredentials treats a missing username or password as an unauthenticated
// request rather than a malformed one.
func (h *Handler) readCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if err := commonhttp.ReadJSON(r, &req); err != nil {
		return credentialsRequest{}, err
	}
	if err := commonhttp.ValidateStruct(req); err != nil {
		if commonhttp.IsMissingField(err) {
			return credentialsRequest{}, commonerrors.ErrNotAuthenticated.WithCause(err)
		}
		return credentialsRequest{}, commonerrors.ErrValidation.WithCause(err)
	}
	return req, nil
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, profile userdomain.Profile) {
	token, err := h.sessions.Issue(sessionauth.Identity{
		UserID:   int(profile.ID),
		Username: profile.Username,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	setSessionCookie(w, r, token.Value, token.ExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, userResponse{User: profile})
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
