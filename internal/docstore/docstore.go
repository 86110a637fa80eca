// Package docstore implements the user and task stores on MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/coally/coally-api/internal/repository"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// dupKeyPattern extracts the field and value from a server E11000 message,
// e.g. `dup key: { email: "a@x.com" }`.
var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?"?(\w+)"?: "((?:[^"\\]|\\.)*)" ?\}`)

// Store wraps a MongoDB database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	tasks  *mongo.Collection
}

// New connects to MongoDB, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		db:     db,
		users:  db.Collection(usersCollection),
		tasks:  db.Collection(tasksCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_username_key")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_key")},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	return nil
}

// Ping checks MongoDB connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// NewID returns a fresh ObjectID in hex form.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// parseID converts a hex id. Malformed ids are reported as notFound so
// callers see them the same as unknown ids.
func parseID(id string, notFound error) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, notFound
	}
	return oid, nil
}

// asDuplicateKey converts an E11000 error into a DuplicateKeyError.
func asDuplicateKey(err error, fallback map[string]string) *repository.DuplicateKeyError {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	keys := map[string]string{}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if m := dupKeyPattern.FindStringSubmatch(e.Message); m != nil {
				keys[m[1]] = m[2]
			}
		}
	}
	if len(keys) == 0 {
		if m := dupKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			keys[m[1]] = m[2]
		}
	}
	if len(keys) == 0 {
		keys = fallback
	}

	return &repository.DuplicateKeyError{Keys: keys}
}
