package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/repository"
)

// Messages returned to clients on auth failures.
const (
	MsgUserNotFound      = "user not found"
	MsgInvalidPassword   = "invalid password"
	MsgTokenRequired     = "authorization token required"
	MsgTokenExpired      = "token expired"
	MsgTokenInvalid      = "invalid token"
	MsgUserDisabled      = "token invalid or user disabled"
	MsgSessionSuperseded = "session superseded"
)

// AuthOptions configures an AuthService.
type AuthOptions struct {
	BcryptCost int
	// SingleSession rejects tokens other than the user's most recently issued one.
	SingleSession bool
	Sessions      SessionCache
	Metrics       metrics.Recorder
	Logger        *slog.Logger
	NewID         IDFunc
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	users         UserStore
	tokens        *auth.TokenIssuer
	sessions      SessionCache
	cost          int
	singleSession bool
	metrics       metrics.Recorder
	logger        *slog.Logger
	newID         IDFunc
	now           func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenIssuer, opts AuthOptions) *AuthService {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = NewULID
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = auth.DefaultCost
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		sessions:      opts.Sessions,
		cost:          opts.BcryptCost,
		singleSession: opts.SingleSession,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		newID:         opts.NewID,
		now:           time.Now,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines input for logging in. Identifier is an email or a username.
type LoginInput struct {
	Identifier string
	Password   string
}

// LoginResult is the sanitized user and the freshly issued token.
type LoginResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register validates and stores a new user. The returned user is sanitized.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := model.NormalizeEmail(input.Email)

	if err := model.ValidateUsername(username); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := model.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if input.Password == "" {
		return nil, apperror.Validation(model.ErrPasswordRequired.Error())
	}

	hash, err := auth.HashPassword(input.Password, s.cost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &model.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, duplicateKeyConflict(dup)
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	s.metrics.IncUserRegistered()

	return user.Sanitized(), nil
}

// Login checks credentials and issues a new token, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLoginDuration(time.Since(start)) }()

	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return nil, apperror.Validation("identifier is required")
	}
	if input.Password == "" {
		return nil, apperror.Validation(model.ErrPasswordRequired.Error())
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.LoginUnknownUser)
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if err := auth.VerifyPassword(input.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.IncLogin(metrics.LoginInvalidPassword)
			return nil, apperror.Unauthorized(MsgInvalidPassword)
		}
		return nil, apperror.Internal("failed to verify password", err)
	}

	token, err := s.tokens.Sign(user)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	previous := user.Token
	updated, err := s.users.SetUserToken(ctx, user.ID, token)
	if err != nil {
		return nil, apperror.Internal("failed to store token", err)
	}

	if s.sessions != nil {
		if err := s.sessions.SetCurrentToken(ctx, user.ID, auth.QuickHash(token), s.tokens.TTL()); err != nil {
			s.logger.Warn("failed to record current session", "user_id", user.ID, "error", err)
		}
		if previous != "" {
			if err := s.sessions.DeleteSession(ctx, auth.QuickHash(previous)); err != nil {
				s.logger.Warn("failed to drop superseded session", "user_id", user.ID, "error", err)
			}
		}
	}

	s.metrics.IncLogin(metrics.LoginSuccess)

	return &LoginResult{User: updated.Sanitized(), Token: token}, nil
}

// Authenticate resolves an Authorization header value to the current user.
// The header may carry the raw token or "Bearer <token>".
func (s *AuthService) Authenticate(ctx context.Context, header string) (*model.User, error) {
	token := auth.ExtractToken(header)

	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.metrics.IncTokenCheck(metrics.TokenRejected)
		switch {
		case errors.Is(err, auth.ErrTokenMissing):
			return nil, apperror.Unauthorized(MsgTokenRequired)
		case errors.Is(err, auth.ErrTokenExpired):
			return nil, apperror.Unauthorized(MsgTokenExpired)
		default:
			return nil, apperror.Unauthorized(MsgTokenInvalid)
		}
	}

	tokenHash := auth.QuickHash(token)

	if s.sessions != nil {
		cached, err := s.sessions.GetSession(ctx, tokenHash)
		if err != nil {
			s.logger.Warn("session cache lookup failed", "error", err)
		}
		if cached != nil && cached.ID == claims.User.ID && s.isCurrent(ctx, cached.ID, tokenHash) {
			s.metrics.IncSessionCacheHit()
			s.metrics.IncTokenCheck(metrics.TokenValid)
			return cached, nil
		}
		s.metrics.IncSessionCacheMiss()
	}

	user, err := s.users.GetUserByID(ctx, claims.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncTokenCheck(metrics.TokenRejected)
			return nil, apperror.Unauthorized(MsgUserDisabled)
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if s.singleSession && user.Token != token {
		s.metrics.IncTokenCheck(metrics.TokenSuperseded)
		return nil, apperror.Unauthorized(MsgSessionSuperseded)
	}

	sanitized := user.Sanitized()
	if s.sessions != nil {
		if err := s.sessions.SetSession(ctx, tokenHash, sanitized); err != nil {
			s.logger.Warn("failed to cache session", "user_id", user.ID, "error", err)
		}
	}

	s.metrics.IncTokenCheck(metrics.TokenValid)

	return sanitized, nil
}

// isCurrent reports whether a cached session may be served without a store
// read. With single sessions the token must match the one recorded at login.
func (s *AuthService) isCurrent(ctx context.Context, userID, tokenHash string) bool {
	if !s.singleSession {
		return true
	}
	current, err := s.sessions.CurrentToken(ctx, userID)
	if err != nil {
		s.logger.Warn("current session lookup failed", "user_id", userID, "error", err)
		return false
	}
	return current == tokenHash
}

// lookup finds a user by email when the identifier looks like one,
// otherwise by username.
func (s *AuthService) lookup(ctx context.Context, identifier string) (*model.User, error) {
	if model.LooksLikeEmail(identifier) {
		return s.users.GetUserByEmail(ctx, model.NormalizeEmail(identifier))
	}
	return s.users.GetUserByUsername(ctx, identifier)
}

func duplicateKeyConflict(dup *repository.DuplicateKeyError) *apperror.Error {
	details := make(map[string]any, len(dup.Keys))
	for k, v := range dup.Keys {
		details[k] = v
	}

	encoded, err := json.Marshal(dup.Keys)
	if err != nil {
		encoded = []byte(fmt.Sprint(dup.Keys))
	}

	return apperror.Conflict("Duplicate key error: "+string(encoded), details)
}
