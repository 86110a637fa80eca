// Command migrate applies or reverts the embedded PostgreSQL migrations.
//
//	migrate up
//	migrate down -steps 1
//	migrate status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/coally/coally-api/internal/migrate"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		steps       = flag.Int("steps", 1, "Number of migrations to revert with down")
		timeout     = flag.Duration("timeout", time.Minute, "Overall timeout")
	)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [flags] up|down|status")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, flag.Arg(0), *databaseURL, *steps, logger); err != nil {
		logger.Error("migrate failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, databaseURL string, steps int, logger *slog.Logger) error {
	switch command {
	case "up", "down", "status":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	migrator, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "versions", applied)
	case "down":
		if steps < 1 {
			return errors.New("steps must be at least 1")
		}
		reverted, err := migrator.Down(ctx, steps)
		if err != nil {
			return err
		}
		logger.Info("migrations reverted", "versions", reverted)
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			switch {
			case s.Dirty:
				state = "dirty"
			case s.Applied:
				state = "applied"
			}
			fmt.Printf("%06d_%s\t%s\n", s.Version, s.Name, state)
		}
	}
	return nil
}
