// Command seed applies the schema and creates the initial admin account.
//
//	go run ./cmd/seed -email admin@example.com -password 'Admin@123'
//
// Flags default to SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD. Running it
// again is a no-op once the account exists.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/carcatalog/internal/admin"
	"github.com/JonMunkholm/carcatalog/internal/config"
	"github.com/JonMunkholm/carcatalog/internal/logging"
)

func main() {
	_ = godotenv.Overload()
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	var dbCfg config.DatabaseConfig
	var seedCfg config.SeedConfig
	for _, section := range []any{&dbCfg, &seedCfg} {
		if err := config.LoadInto(section, os.Getenv); err != nil {
			slog.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
	}

	email := flag.String("email", seedCfg.Email, "admin email")
	password := flag.String("password", seedCfg.Password, "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		slog.Error("email and password must not be empty")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbCfg.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	seeder := &admin.Seeder{Conn: pool}
	if err := seeder.Run(ctx, *email, *password); err != nil {
		slog.Error("seeding failed", "error", err)
		pool.Close()
		os.Exit(1)
	}
	slog.Info("seeding complete", "email", *email)
}
