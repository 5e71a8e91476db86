package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/cache"
	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/models"
	"github.com/aster-app/aster/internal/services"
)

const (
	maxContentLen    = 256
	defaultPageLimit = 10
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	db    *sql.DB
	posts services.PostServiceProvider
	cache *cache.Cache
	audit services.AuditServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, posts services.PostServiceProvider, responseCache *cache.Cache, audit services.AuditServiceProvider) *PostHandler {
	return &PostHandler{db: db, posts: posts, cache: responseCache, audit: audit}
}

// PostPayload defines the structure for post creation requests.
type PostPayload struct {
	Content string `json:"content"`
}

// Create publishes a new post authored by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var payload PostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	if payload.Content == "" || len(payload.Content) > maxContentLen {
		http.Error(w, "content must be 1-256 characters", http.StatusUnprocessableEntity)
		return
	}

	var post models.Post
	err := database.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		var err error
		post, err = h.posts.CreatePost(r.Context(), tx, user, payload.Content)
		return err
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), "posts:"+user.Username)
	if auditErr := h.audit.Record(r.Context(), "post.create", "info", fmt.Sprintf("created post %d", post.ID), &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}

	writeJSON(w, r, http.StatusCreated, post.View())
}

// List returns an author's posts, newest first, paginated via limit/offset.
// Responses are served from the cache when possible.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username query parameter is required", http.StatusUnprocessableEntity)
		return
	}

	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit < 0 {
		http.Error(w, "invalid limit", http.StatusUnprocessableEntity)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		http.Error(w, "invalid offset", http.StatusUnprocessableEntity)
		return
	}

	gen := h.cache.Generation(r.Context(), "posts:"+username)
	key := fmt.Sprintf("posts:%d:%s:%d:%d", gen, username, limit, offset)
	if body := h.cache.Get(r.Context(), key); body != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	}

	posts, err := h.posts.ListPosts(r.Context(), h.db, username, limit, offset)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	body, err := json.Marshal(models.PostViews(posts))
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.cache.Set(r.Context(), key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Get retrieves a single post with its author.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusUnprocessableEntity)
		return
	}

	post, err := h.posts.GetPostByID(r.Context(), h.db, postID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, post.View())
}

// Delete removes a post. Only the author may delete it.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusUnprocessableEntity)
		return
	}

	err = database.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		post, err := h.posts.GetPostByID(r.Context(), tx, postID)
		if err != nil {
			return err
		}
		return h.posts.DeletePost(r.Context(), tx, post, user)
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), "posts:"+user.Username)
	if auditErr := h.audit.Record(r.Context(), "post.delete", "info", fmt.Sprintf("deleted post %d", postID), &user.Username); auditErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(auditErr).Msg("Failed to record audit event")
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
