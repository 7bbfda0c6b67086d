package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/crucial707/admin-console/internal/config"
	"github.com/crucial707/admin-console/internal/db"
	"github.com/crucial707/admin-console/internal/repo"
	"github.com/crucial707/admin-console/internal/seed"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if cfg.Env == "prod" {
		slog.Error("refusing to seed development accounts when ENV=prod")
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DSN(), db.Options{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	if err := seed.Run(ctx, repo.NewStore(database), seed.DefaultRoles, seed.DefaultAccounts); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}

	slog.Info("database seeded")
	for _, a := range seed.DefaultAccounts {
		slog.Info("login credentials", "email", a.Email, "password", a.Password, "role", a.Role)
	}
}
