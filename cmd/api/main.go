package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/crucial707/admin-console/internal/auth"
	"github.com/crucial707/admin-console/internal/config"
	"github.com/crucial707/admin-console/internal/db"
	"github.com/crucial707/admin-console/internal/handlers"
	"github.com/crucial707/admin-console/internal/middleware"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
	"github.com/crucial707/admin-console/internal/scheduler"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(context.Background(), cfg.DSN(), db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if cfg.MigrateOnStart {
		if err := db.Run(cfg.DatabaseURL()); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied")
	}

	stopScheduler, err := scheduler.Start(cfg.AnalyticsRefreshCron, repo.NewAnalyticsRepo(database))
	if err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "tls", cfg.TLSEnabled(), "env", cfg.Env)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	stopScheduler()
	slog.Info("server stopped")
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newRouter wires the store, token issuer and handlers onto a chi router.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	store := repo.NewStore(database)

	ttl := auth.DefaultTokenTTL
	if cfg.JWTExpireHours > 0 {
		ttl = time.Duration(cfg.JWTExpireHours) * time.Hour
	}
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), ttl)

	authHandler := &handlers.AuthHandler{Store: store, Issuer: issuer}
	userHandler := &handlers.UserHandler{Store: store}
	roleHandler := &handlers.RoleHandler{Store: store}
	auditHandler := &handlers.AuditHandler{Store: store}
	analyticsHandler := &handlers.AnalyticsHandler{Store: store}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Observe)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// ==========================
	// Probes and metrics
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ==========================
		// Auth
		// ==========================
		loginLimiter := middleware.LoginRateLimiter()
		r.With(loginLimiter.Middleware).Post("/auth/login", authHandler.Login)

		// ==========================
		// Super admin
		// ==========================
		r.Route("/superadmin", func(r chi.Router) {
			r.Use(middleware.Authenticate(issuer, store.Users))
			r.Use(middleware.RequireRole(models.RoleSuperAdmin))

			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Put("/users/{id}", userHandler.UpdateUser)
			r.Delete("/users/{id}", userHandler.DeleteUser)

			r.Post("/assign-role", userHandler.AssignRole)

			r.Get("/roles", roleHandler.ListRoles)
			r.Post("/roles", roleHandler.CreateRole)
			r.Put("/roles/{id}", roleHandler.UpdateRole)

			r.Get("/audit-logs", auditHandler.ListAuditLogs)
			r.Get("/analytics/summary", analyticsHandler.Summary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
