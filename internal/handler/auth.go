package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler serves sign-up, sign-in (password and GitHub), logout and
// the current user.
type AuthHandler struct {
	auth         *service.AuthService
	github       *auth.GitHubProvider // nil when GitHub sign-in is disabled
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		github:       github,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister serves POST /auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, res.User)
}

// HandleLogin serves POST /auth/login with an email and password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, h.logger, apperror.ValidationFailed("email", "email and password are required"))
		return
	}

	res, err := h.auth.SignIn(r.Context(), auth.ProviderPassword, auth.Credential{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, res.User)
}

// HandleGitHubLogin serves GET /auth/github/login: it stores a random state
// in a short-lived cookie and redirects to GitHub.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, h.logger, apperror.NotFound("auth provider", auth.ProviderGitHub))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback serves GET /auth/github/callback. The state must
// match the cookie set by HandleGitHubLogin.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, h.logger, apperror.NotFound("auth provider", auth.ProviderGitHub))
		return
	}

	query := r.URL.Query()
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || query.Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if denied := query.Get("error"); denied != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	res, err := h.auth.SignIn(r.Context(), auth.ProviderGitHub, auth.Credential{Code: code})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout serves POST /auth/logout. Sessions are stateless, so this
// only clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe serves GET /api/me. Requires auth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.auth.TokenTTL(),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
