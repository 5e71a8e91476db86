package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aster-app/aster/internal/api"
	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/cache"
	"github.com/aster-app/aster/internal/config"
	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/logger"
	"github.com/aster-app/aster/internal/monitoring"
	"github.com/aster-app/aster/internal/services"
)

const usage = `Usage: aster <command> [arguments]

Commands:
  server start      run the HTTP server
  server config     print the effective configuration
  database init     create the schema on a fresh database
  database drop     revert all migrations (prompts unless --yes)
  database upgrade  apply pending migrations
  database heads    show the current migration version
  database history  list migrations and their applied state
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "aster: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	args := os.Args[1:]
	if len(args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch args[0] {
	case "server":
		runServer(cfg, args[1])
	case "database":
		runDatabase(cfg, args[1], args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runServer(cfg *config.Config, sub string) {
	switch sub {
	case "config":
		fmt.Printf("server_port: %d\n", cfg.ServerPort)
		fmt.Printf("database_path: %s\n", cfg.DatabasePath)
		fmt.Printf("redis_url: %s\n", cfg.RedisURL)
		fmt.Printf("cors_origins: %s\n", strings.Join(cfg.CORSOrigins, ","))
		fmt.Printf("secret_key: %s\n", "********")
		fmt.Printf("token_algorithm: %s\n", cfg.TokenAlgorithm)
		fmt.Printf("access_token_expires: %s\n", cfg.AccessTokenExpires)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("audit_retention_days: %d\n", cfg.AuditRetentionDays)
	case "start":
		serve(cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(cfg *config.Config) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	responseCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer responseCache.Close()

	issuer, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenAlgorithm, cfg.AccessTokenExpires)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure token issuer")
	}

	userService := services.NewUserService()
	postService := services.NewPostService()
	auditService := services.NewAuditService(db)

	pruner := monitoring.NewAuditPruner(auditService, cfg.AuditRetentionDays)
	go pruner.Run()

	router := api.NewRouter(cfg, db, issuer, userService, postService, auditService, responseCache)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

func runDatabase(cfg *config.Config, sub string, rest []string) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	switch sub {
	case "init", "upgrade":
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		fmt.Println("Success.")
	case "drop":
		fs := flag.NewFlagSet("drop", flag.ExitOnError)
		yes := fs.Bool("yes", false, "silence the confirmation prompt")
		fs.Parse(rest)
		if !*yes && !confirm(fmt.Sprintf("Are you sure you want to drop %q ?", cfg.DatabasePath)) {
			return
		}
		if err := database.Drop(db); err != nil {
			log.Fatal().Err(err).Msg("Drop failed")
		}
		fmt.Println("Success.")
	case "heads":
		version, dirty, ok, err := database.Version(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration version")
		}
		if !ok {
			fmt.Println("no migrations applied")
			return
		}
		if dirty {
			fmt.Printf("%d (dirty)\n", version)
			return
		}
		fmt.Println(version)
	case "history":
		migrations, err := database.History(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration history")
		}
		for _, m := range migrations {
			mark := " "
			if m.Applied {
				mark = "x"
			}
			fmt.Printf("[%s] %06d %s\n", mark, m.Version, m.Name)
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
