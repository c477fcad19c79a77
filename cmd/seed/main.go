package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/partner-auth-service/config"
	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/container"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
)

// seed creates the first admin identity through the same registration path
// the API uses, so hashing and validation rules stay identical.
func main() {
	_ = godotenv.Load()

	email := flag.String("email", getenv("SEED_ADMIN_EMAIL", "admin@partner.local"), "admin email")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (min 6 chars)")
	name := flag.String("name", "Platform Admin", "display name")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if *password == "" {
		log.Fatal("password is required (-password or SEED_ADMIN_PASSWORD)")
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize: %v", err)
	}
	defer c.Close()

	res, err := c.Session.Register(ctx, application.RegisterInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     entity.RoleAdmin,
	})
	switch {
	case errors.Is(err, application.ErrDuplicateIdentity):
		logger.WithField("email", *email).Info("admin already exists; nothing to do")
		return
	case err != nil:
		logger.Fatalf("failed to seed admin: %v", err)
	}
	// the seeder never hands out the refresh token it was issued
	if err := c.Session.Logout(ctx, res.Identity.ID, res.Tokens.RefreshToken); err != nil {
		logger.WithError(err).Warn("failed to revoke seed session")
	}
	logger.WithField("user_id", res.Identity.ID).WithField("email", res.Identity.Email).Info("seeded admin identity")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
