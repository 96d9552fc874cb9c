// Command seed provisions a staff login account so the application has a
// credential to authenticate against.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/adeilh/go-empdir/auth"
	"github.com/adeilh/go-empdir/db/sql/postgres"
)

// seedConfig needs only the database; the server's remaining settings do not
// apply here.
type seedConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	email := flag.String("email", "", "staff email address")
	password := flag.String("password", "", "staff password")
	flag.Parse()

	if *email == "" || *password == "" {
		logger.Error("both -email and -password are required")
		os.Exit(2)
	}

	if err := run(*email, *password); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("staff account created", "email", *email)
}

func run(email, password string) error {
	var cfg seedConfig
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, postgres.WithDSN(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	hash, err := auth.NewArgon2idHasher().Hash(ctx, []byte(password))
	if err != nil {
		return err
	}

	err = postgres.NewStaffRepository(db).AddStaff(ctx, auth.Credential{Email: email, PasswordHash: hash})
	if errors.Is(err, postgres.ErrStaffExists) {
		return errors.New("account already exists")
	}
	return err
}
