package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/config"
	"github.com/coally/coally-api/internal/docstore"
	"github.com/coally/coally-api/internal/repository"
	"github.com/coally/coally-api/internal/service"
)

type output struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

type userStore interface {
	service.UserStore
	Close() error
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL or MongoDB connection string")
		mongoDB     = flag.String("mongo-database", envOr("MONGO_DATABASE", "coally"), "MongoDB database name")
		username    = flag.String("username", "", "Username (no whitespace)")
		email       = flag.String("email", "", "Email address")
		password    = flag.String("password", os.Getenv("CREATE_USER_PASSWORD"), "Password (or CREATE_USER_PASSWORD)")
		login       = flag.Bool("login", false, "Also log in and print a session token (uses JWT_SECRET)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}
	if *username == "" || *email == "" || *password == "" {
		fail("username, email and password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, newID, err := openStore(ctx, *databaseURL, *mongoDB)
	if err != nil {
		fail(err.Error())
	}
	defer store.Close()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = config.DevJWTSecret
	}
	svc := service.NewAuthService(store, auth.NewTokenIssuer(secret, auth.DefaultTokenTTL), service.AuthOptions{
		SingleSession: true,
		NewID:         newID,
	})

	user, err := svc.Register(ctx, service.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		fail("create user: " + err.Error())
	}

	out := output{UserID: user.ID, Username: user.Username, Email: user.Email}

	if *login {
		result, err := svc.Login(ctx, service.LoginInput{Identifier: user.Username, Password: *password})
		if err != nil {
			fail("login: " + err.Error())
		}
		out.Token = result.Token
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
		if out.Token != "" {
			fmt.Println(out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

func openStore(ctx context.Context, databaseURL, mongoDB string) (userStore, service.IDFunc, error) {
	cfg := &config.Config{DatabaseURL: databaseURL}
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case config.StorePostgres:
		repo, err := repository.New(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return repo, service.NewULID, nil
	case config.StoreMongo:
		docs, err := docstore.New(ctx, databaseURL, mongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return docs, docstore.NewID, nil
	default:
		return nil, nil, fmt.Errorf("%s store is not persistent; nothing to create", kind)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
