package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/models"
	"github.com/aster-app/aster/internal/services"
)

const (
	maxUsernameLen = 64
	maxPasswordLen = 256
)

// UserHandler handles HTTP requests for user accounts and block edges.
type UserHandler struct {
	db    *sql.DB
	users services.UserServiceProvider
	audit services.AuditServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, users services.UserServiceProvider, audit services.AuditServiceProvider) *UserHandler {
	return &UserHandler{db: db, users: users, audit: audit}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	if payload.Username == "" || len(payload.Username) > maxUsernameLen {
		http.Error(w, "username must be 1-64 characters", http.StatusUnprocessableEntity)
		return
	}
	if payload.Password == "" || len(payload.Password) > maxPasswordLen {
		http.Error(w, "password must be 1-256 characters", http.StatusUnprocessableEntity)
		return
	}

	var user models.User
	err := database.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		var err error
		user, err = h.users.CreateUser(r.Context(), tx, payload.Username, payload.Password)
		return err
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	if auditErr := h.audit.Record(r.Context(), "user.register", "info", "user registered", &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}

	writeJSON(w, r, http.StatusCreated, user.View())
}

// List returns all users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), h.db)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, models.UserViews(users))
}

// Get retrieves a user by username.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), h.db, chi.URLParam(r, "username"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user.View())
}

// Me returns the authenticated user's own view.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, user.View())
}

// UpdateMe is a placeholder for profile updates.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// UpdatePassword is a placeholder for password changes.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ListBlocks returns every user the caller has blocked.
func (h *UserHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	blocked, err := h.users.ListBlockedUsers(r.Context(), h.db, user.Username)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, models.UserViews(blocked))
}

// CheckBlock reports whether the caller has blocked the named user: 204 when
// an edge exists, 404 when it does not or the user is unknown.
func (h *UserHandler) CheckBlock(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	target := chi.URLParam(r, "username")

	if _, err := h.users.GetUserByUsername(r.Context(), h.db, target); err != nil {
		serviceError(w, r, err)
		return
	}

	blocked, err := h.users.IsBlockedBy(r.Context(), h.db, user.Username, target)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if !blocked {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Block creates a block edge from the caller to the named user. Repeating
// the call is a no-op.
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	target := chi.URLParam(r, "username")

	err := database.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.users.BlockUser(r.Context(), tx, user, target)
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	if auditErr := h.audit.Record(r.Context(), "user.block", "info", "blocked "+target, &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unblock removes the block edge from the caller to the named user.
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	target := chi.URLParam(r, "username")

	err := database.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.users.UnblockUser(r.Context(), tx, user, target)
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	if auditErr := h.audit.Record(r.Context(), "user.unblock", "info", "unblocked "+target, &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}
	w.WriteHeader(http.StatusNoContent)
}
