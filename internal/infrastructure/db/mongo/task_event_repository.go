package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

const taskEventsCollection = "task_events"

// TaskEventRepository implements ports.TaskEventRepository using MongoDB.
type TaskEventRepository struct {
	db *mongo.Database
}

// NewTaskEventRepository creates a new TaskEventRepository.
func NewTaskEventRepository(db *mongo.Database) ports.TaskEventRepository {
	return &TaskEventRepository{db: db}
}

// EnsureIndexes creates the indexes used by ListByTask.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(taskEventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure task_events indexes: %w", err)
	}
	return nil
}

// Insert appends an event to the task_events collection. Re-inserting an
// event with the same id is a no-op.
func (r *TaskEventRepository) Insert(ctx context.Context, event *domain.TaskEvent) error {
	doc := *event
	doc.OccurredAt = doc.OccurredAt.UTC()

	_, err := r.db.Collection(taskEventsCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// ListByTask returns the most recent events for a task, newest first.
func (r *TaskEventRepository) ListByTask(ctx context.Context, taskID uint, limit int) ([]domain.TaskEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(taskEventsCollection).Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []domain.TaskEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
