package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-identity-docstore/config"
	"github.com/oksasatya/go-identity-docstore/internal/application"
	"github.com/oksasatya/go-identity-docstore/internal/container"
	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if !cfg.Persistent() {
		logger.WithField("backend", cfg.Backend).Warn("seeding a backend that does not persist between runs")
	}
	ctx := context.Background()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build stores: %v", err)
	}
	defer c.Close()

	// Ensure base roles exist
	for _, name := range []string{"admin", "user"} {
		r, err := ensureRole(ctx, c.Roles, name)
		if err != nil {
			log.Fatalf("failed to upsert %s role: %v", name, err)
		}
		fmt.Printf("role ensured: %s=%s\n", name, r.ID())
	}

	email := "demo@example.com"
	password := "password123"
	userName := "demoUser"

	u, err := c.Users.FindByName(ctx, helpers.UpperInvariant(userName))
	switch {
	case err == nil:
		fmt.Printf("user already seeded: id=%s\n", u.ID())
		return
	case !errors.Is(err, domain.ErrNotFound):
		log.Fatalf("failed to look up user: %v", err)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u, err = entity.NewUser(userName)
	if err != nil {
		log.Fatalf("failed to build user: %v", err)
	}
	steps := []error{
		c.Users.SetEmail(u, email),
		c.Users.SetEmailConfirmed(u, true),
		c.Users.SetPasswordHash(u, hash),
		c.Users.SetSecurityStamp(u, helpers.NewUUID()),
		c.Users.AddClaims(u, []application.Claim{{Type: "role", Value: "admin"}}),
	}
	if err := errors.Join(steps...); err != nil {
		log.Fatalf("failed to prepare user: %v", err)
	}
	if err := c.Users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", u.ID(), email, userName, password)
}

func ensureRole(ctx context.Context, roles *application.RoleStore, name string) (*entity.Role, error) {
	r, err := roles.FindByName(ctx, helpers.UpperInvariant(name))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if r, err = entity.NewRole(name); err != nil {
		return nil, err
	}
	if err := roles.AddClaim(r, application.Claim{Type: "role", Value: name}); err != nil {
		return nil, err
	}
	return r, roles.Create(ctx, r)
}
