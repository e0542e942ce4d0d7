package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brewpos/api/internal/auth"
	"github.com/brewpos/api/internal/config"
	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/brewpos/api/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

func main() {
	// CLI flags
	email := flag.String("email", "", "User email address")
	name := flag.String("name", "", "User full name")
	role := flag.String("role", "", "User role (admin or staff)")
	flag.Parse()

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@brewpos.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Admin")
	*role = firstNonEmpty(*role, os.Getenv("SEED_ROLE"), enum.UserRoleAdmin)

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !enum.IsValidUserRole(*role) {
		logger.Fatal("invalid role", zap.String("role", *role))
	}

	cfg := config.Load()
	if err := seed(context.Background(), cfg, logger, *email, *name, *role); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, cfg *config.Config, logger *zap.Logger, email, name, role string) error {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(sqlDB); err != nil {
		return err
	}
	logger.Info("migrations applied")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// Seed in a transaction: user and catalog defaults or nothing
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := database.New(tx)

	user, err := qtx.UpsertUserByEmail(ctx, database.UpsertUserByEmailParams{
		Email:    email,
		FullName: name,
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	logger.Info("user ready", zap.String("id", user.ID.String()), zap.String("email", user.Email), zap.String("role", user.Role))

	addOns, err := service.SeedDefaultAddOns(ctx, qtx)
	if err != nil {
		return err
	}
	modifiers, err := service.SeedDefaultModifiers(ctx, qtx)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Int("add_ons", len(addOns)), zap.Int("modifiers", len(modifiers)))

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, user.Email, user.Role, tokenTTL)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
