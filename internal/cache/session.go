package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coally/coally-api/internal/model"
)

const (
	sessionPrefix = "session:"
	currentPrefix = "session:current:"
	// SessionTTL bounds how long a validated token skips the store lookup.
	SessionTTL = 5 * time.Minute
)

// cachedSession is the user record stored per token hash.
type cachedSession struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// GetSession returns the user cached for a token hash.
// A miss or a corrupted entry returns (nil, nil).
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*model.User, error) {
	data, err := c.client.Get(ctx, sessionPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.User{
		ID:        cached.ID,
		Username:  cached.Username,
		Email:     cached.Email,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetSession caches the user for a token hash.
func (c *Cache) SetSession(ctx context.Context, tokenHash string, user *model.User) error {
	data, err := json.Marshal(cachedSession{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionPrefix+tokenHash, data, SessionTTL).Err()
}

// DeleteSession drops a cached session. Called when a token is superseded.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, sessionPrefix+tokenHash).Err()
}

// CurrentToken returns the hash of the user's most recently issued token,
// or "" if none is recorded.
func (c *Cache) CurrentToken(ctx context.Context, userID string) (string, error) {
	hash, err := c.client.Get(ctx, currentPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get current session: %w", err)
	}
	return hash, nil
}

// SetCurrentToken records the user's most recently issued token hash.
func (c *Cache) SetCurrentToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	return c.client.Set(ctx, currentPrefix+userID, tokenHash, ttl).Err()
}
