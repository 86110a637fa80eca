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

type taskDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description,omitempty"`
	Completed   bool          `bson:"completed"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func (d *taskDoc) toModel() *model.Task {
	return &model.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
	}
}

// CreateTask inserts a new task document.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	oid, err := bson.ObjectIDFromHex(task.ID)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", task.ID, err)
	}

	_, err = s.tasks.InsertOne(ctx, taskDoc{
		ID:          oid,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// ListTasks returns matching tasks, oldest first.
func (s *Store) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	query := bson.D{}
	if filter.Completed != nil {
		query = append(query, bson.E{Key: "completed", Value: *filter.Completed})
	}

	cursor, err := s.tasks.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*model.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toModel())
	}
	return tasks, nil
}

// GetTaskByID retrieves a task by id.
func (s *Store) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	oid, err := parseID(id, repository.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}

	var doc taskDoc
	if err := s.tasks.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, taskErr(err, "get")
	}
	return doc.toModel(), nil
}

// UpdateTask applies the patch with $set and returns the updated task.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	oid, err := parseID(id, repository.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *patch.Completed})
	}
	if len(set) == 0 {
		return s.GetTaskByID(ctx, id)
	}

	var doc taskDoc
	err = s.tasks.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, taskErr(err, "update")
	}
	return doc.toModel(), nil
}

// DeleteTask removes a task and returns the deleted document.
func (s *Store) DeleteTask(ctx context.Context, id string) (*model.Task, error) {
	oid, err := parseID(id, repository.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}

	var doc taskDoc
	if err := s.tasks.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, taskErr(err, "delete")
	}
	return doc.toModel(), nil
}

func taskErr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrTaskNotFound
	}
	return fmt.Errorf("failed to %s task: %w", op, err)
}
