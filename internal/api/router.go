package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aster-app/aster/internal/api/handlers"
	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/cache"
	"github.com/aster-app/aster/internal/config"
	"github.com/aster-app/aster/internal/metrics"
	"github.com/aster-app/aster/internal/models"
	"github.com/aster-app/aster/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	db *sql.DB,
	issuer *auth.TokenIssuer,
	users services.UserServiceProvider,
	posts services.PostServiceProvider,
	audit services.AuditServiceProvider,
	responseCache *cache.Cache,
) *chi.Mux {
	r := chi.NewRouter()

	// Cross-cutting middleware, outermost first: correlation id, metrics,
	// access logging, panic translation.
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(metrics.Instrument)
	r.Use(RequestLogger)
	r.Use(Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The auth middleware re-fetches the token subject on every request so a
	// deleted account cannot keep using an old token.
	requireUser := auth.CurrentUser(issuer, func(ctx context.Context, username string) (models.User, error) {
		return users.GetUserByUsername(ctx, db, username)
	})

	authHandler := handlers.NewAuthHandler(db, users, issuer, audit)
	userHandler := handlers.NewUserHandler(db, users, audit)
	postHandler := handlers.NewPostHandler(db, posts, responseCache, audit)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Hello world!"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/login", authHandler.Login)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Get("/", userHandler.List)
		r.Get("/{username}", userHandler.Get)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", userHandler.Me)
		r.Patch("/", userHandler.UpdateMe)
		r.Put("/password", userHandler.UpdatePassword)

		r.Route("/blocks", func(r chi.Router) {
			r.Get("/", userHandler.ListBlocks)
			r.Get("/{username}", userHandler.CheckBlock)
			r.Put("/{username}", userHandler.Block)
			r.Delete("/{username}", userHandler.Unblock)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Get("/{id}", postHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", postHandler.Create)
			r.Delete("/{id}", postHandler.Delete)
		})
	})

	return r
}
