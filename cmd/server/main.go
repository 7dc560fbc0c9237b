package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"caltrack/internal/auth"
	"caltrack/internal/config"
	"caltrack/internal/db"
	"caltrack/internal/handlers"
	mw "caltrack/internal/middleware"
	"caltrack/internal/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err = dbConn.Ping(); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	sessions := auth.NewSessionManager([]byte(cfg.SessionSecret))
	apiKeySvc := services.NewAPIKeyService(dbConn, logger)
	resolver := auth.NewResolver(apiKeySvc, sessions, cfg.LegacyAPIKey, cfg.AllowedEmail, logger)
	authMW := mw.NewAuthMiddleware(resolver)

	sessionHandler := handlers.NewSessionHandler(cfg, sessions, logger)
	entriesHandler := handlers.NewEntriesHandler(dbConn, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(dbConn, logger)
	exportHandler := handlers.NewExportHandler(dbConn, logger)
	apiKeysHandler := handlers.NewAPIKeysHandler(apiKeySvc, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-api-key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", sessionHandler.Login)
		api.Post("/auth/logout", sessionHandler.Logout)

		api.Route("/caltrack/api-keys", func(keys chi.Router) {
			keys.Use(authMW.RequireUser)
			keys.Post("/generate", apiKeysHandler.Generate)
			keys.Get("/list", apiKeysHandler.List)
			keys.Delete("/{id}", apiKeysHandler.Revoke)
		})

		api.Route("/v1/caltrack", func(v1 chi.Router) {
			v1.Use(httprate.LimitByIP(120, time.Minute))
			v1.Use(authMW.RequireAuth)

			v1.Post("/entries", entriesHandler.Add)
			v1.Delete("/entries/{date}", entriesHandler.Delete)
			v1.Get("/daily-stats", entriesHandler.GetDailyStats)
			v1.Put("/daily-stats/{date}/exclude", entriesHandler.Exclude)

			v1.Get("/analytics/trends", analyticsHandler.Trends)
			v1.Get("/analytics/patterns", analyticsHandler.Patterns)
			v1.Get("/analytics/foods", analyticsHandler.Foods)

			v1.Get("/export/entries", exportHandler.Entries)
			v1.Get("/export/daily-stats", exportHandler.DailyStats)
			v1.Get("/export/summary", exportHandler.Summary)
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("server stopped")
}
