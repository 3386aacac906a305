// Package admin provides one-off database maintenance: schema setup and
// seeding the initial admin account.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/carcatalog/internal/auth"
	db "github.com/JonMunkholm/carcatalog/internal/database"
	"github.com/JonMunkholm/carcatalog/internal/schema"
)

// SeedTimeout is the maximum duration for the whole seeding run.
const SeedTimeout = 30 * time.Second

// Seeder applies the schema and creates the admin user.
type Seeder struct {
	Conn db.DBTX
}

// Migrate applies the embedded schema.
func (s *Seeder) Migrate(ctx context.Context) error {
	if err := schema.Apply(ctx, s.Conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema applied")
	return nil
}

// SeedAdmin creates the admin user unless one with email exists. It reports
// whether a user was created.
func (s *Seeder) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	q := db.New(s.Conn)

	exists, err := q.UserExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check admin user: %w", err)
	}
	if exists {
		slog.Info("admin user already exists", "email", email)
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	id, err := q.InsertUser(ctx, db.InsertUserParams{Email: email, Password: hash})
	if err != nil {
		return false, fmt.Errorf("insert admin user: %w", err)
	}

	slog.Info("admin user seeded", "email", email, "id", id)
	return true, nil
}

// Run migrates then seeds, bounded by SeedTimeout.
func (s *Seeder) Run(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, SeedTimeout)
	defer cancel()

	if err := s.Migrate(ctx); err != nil {
		return err
	}
	_, err := s.SeedAdmin(ctx, email, password)
	return err
}
