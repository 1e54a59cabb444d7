// railctl is the operator tool of the booking service.
//
//	railctl token --user u-1 --role admin --ttl 2h
//	railctl verify-pass --secret "$PASS_SECRET" RB1.eyJ0aWQiOi...
//	railctl migrate --config config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/biyonik/rail-booking-api/internal/config"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/auth"
	"github.com/biyonik/rail-booking-api/pkg/database"
	"github.com/biyonik/rail-booking-api/pkg/database/migration"
)

const usage = `usage: railctl <command> [flags]

commands:
  token        sign a bearer token for local testing
  verify-pass  check the signature of a ticket pass payload
  migrate      apply pending MySQL migrations
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "token":
		return tokenCommand(args[1:])
	case "verify-pass":
		return verifyPassCommand(args[1:])
	case "migrate":
		return migrateCommand(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func tokenCommand(args []string) error {
	var (
		configPath string
		userID     string
		email      string
		role       string
		ttl        time.Duration
	)
	flags := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&userID, "user", "u", "", "user id (required)")
	flags.StringVar(&email, "email", "", "email claim")
	flags.StringVarP(&role, "role", "r", auth.RolePassenger, "role: passenger or admin")
	flags.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return errors.New("--user is required")
	}
	if role != auth.RolePassenger && role != auth.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken(userID, email, role, auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationTime: ttl,
	}, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func verifyPassCommand(args []string) error {
	var configPath, secret string
	flags := pflag.NewFlagSet("verify-pass", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&secret, "secret", "", "pass signing secret (defaults to the configured one)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("expected exactly one pass payload")
	}

	if secret == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		secret = cfg.Booking.PassSecret
	}

	claims, err := factory.NewTicketPassFactory(secret).Verify(flags.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("ticket %s: train %s, %s -> %s, seats %v, %s, fare %d\n",
		claims.TicketID, claims.TrainID, claims.From, claims.To, claims.Seats, claims.Class, claims.Fare)
	return nil
}

func migrateCommand(args []string) error {
	var configPath string
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.UsesMySQL() {
		return errors.New("DB_DSN is not configured")
	}

	logger := log.New(os.Stdout, "[railctl] ", log.LstdFlags)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, database.PoolConfig{DSN: cfg.DB.DSN}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migration.NewMigrator(db, logger).Run(ctx, repositories.Migrations())
	if err != nil {
		return err
	}
	for _, name := range applied {
		logger.Printf("✅ Migrated: %s", name)
	}
	if len(applied) == 0 {
		logger.Println("Nothing to migrate")
	}
	return nil
}
