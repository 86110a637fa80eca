package auth

import (
	"context"
	"testing"

	"github.com/coally/coally-api/internal/model"
)

func TestUserContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if UserFromContext(ctx) != nil {
		t.Error("empty context should carry no user")
	}
	if UserIDFromContext(ctx) != "" {
		t.Error("empty context should carry no user id")
	}

	user := &model.User{ID: "u1", Username: "alice"}
	ctx = ContextWithUser(ctx, user)

	if got := UserFromContext(ctx); got != user {
		t.Errorf("UserFromContext() = %v, want %v", got, user)
	}
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext() = %q, want u1", got)
	}
}
