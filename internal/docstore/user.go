package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/repository"
)

type userDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Username  string        `bson:"username"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Token     string        `bson:"token,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Token:        d.Token,
		CreatedAt:    d.CreatedAt,
	}
}

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	_, err = s.users.InsertOne(ctx, userDoc{
		ID:        oid,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Token:     user.Token,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		if dup := asDuplicateKey(err, map[string]string{
			"username": user.Username,
			"email":    user.Email,
		}); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseID(id, repository.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: oid}})
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}})
}

// SetUserToken overwrites the user's token and returns the updated user.
func (s *Store) SetUserToken(ctx context.Context, id, token string) (*model.User, error) {
	oid, err := parseID(id, repository.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "token", Value: token}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user token: %w", err)
	}

	return doc.toModel(), nil
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}
