package handlers

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/models"
	"github.com/aster-app/aster/internal/services"
)

// AuthHandler handles the login endpoint.
type AuthHandler struct {
	db     *sql.DB
	users  services.UserServiceProvider
	tokens *auth.TokenIssuer
	audit  services.AuditServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, users services.UserServiceProvider, tokens *auth.TokenIssuer, audit services.AuditServiceProvider) *AuthHandler {
	return &AuthHandler{db: db, users: users, tokens: tokens, audit: audit}
}

// Login authenticates a form-encoded username/password pair and returns a
// bearer token. Failures are generic so usernames cannot be enumerated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusUnprocessableEntity)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		http.Error(w, "username and password are required", http.StatusUnprocessableEntity)
		return
	}

	user, err := h.users.Authenticate(r.Context(), h.db, username, password)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Str("username", username).Msg("Failed authentication attempt")
		if auditErr := h.audit.Record(r.Context(), "auth.login", "warn", "failed login", &username); auditErr != nil {
			zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
		}
		serviceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("username", user.Username).Msg("Failed to issue token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if auditErr := h.audit.Record(r.Context(), "auth.login", "info", "successful login", &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}

	writeJSON(w, r, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}
