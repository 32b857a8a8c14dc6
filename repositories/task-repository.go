package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trello-project/microservices/tasktracker-service/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TasksCollection = "tasks"

type TaskRepo struct {
	collection *mongo.Collection
	breaker    *gobreaker.CircuitBreaker
}

func NewTaskRepo(collection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *TaskRepo {
	return &TaskRepo{collection: collection, breaker: breaker}
}

func filterDocument(filter models.TaskFilter) bson.M {
	query := bson.M{}
	if filter.AssigneeID != nil {
		query["assigneeId"] = *filter.AssigneeID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (r *TaskRepo) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return execute(r.breaker, func() ([]models.Task, error) {
		cursor, err := r.collection.Find(ctx, filterDocument(filter), options.Find().SetSort(newestFirst))
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
		}
		tasks := []models.Task{}
		if err := cursor.All(ctx, &tasks); err != nil {
			return nil, fmt.Errorf("failed to decode tasks: %w", err)
		}
		return tasks, nil
	})
}

func (r *TaskRepo) Insert(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	task.ID = primitive.NewObjectID()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Version = 0

	_, err := execute(r.breaker, func() (*mongo.InsertOneResult, error) {
		return r.collection.InsertOne(ctx, task)
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return execute(r.breaker, func() (*models.Task, error) {
		var task models.Task
		err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve task %s: %w", id.Hex(), err)
		}
		return &task, nil
	})
}

func updateDocument(update models.TaskUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.SetDueDate {
		set["dueDate"] = update.DueDate
	}
	if update.SetAssignee {
		set["assigneeId"] = update.AssigneeID
	}
	return bson.M{
		"$set": set,
		"$inc": bson.M{"__v": 1},
	}
}

// Update applies the changes and returns the document as it is after the
// write.
func (r *TaskRepo) Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error) {
	doc := updateDocument(update, time.Now().UTC().Truncate(time.Millisecond))
	return execute(r.breaker, func() (*models.Task, error) {
		var task models.Task
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, doc, opts).Decode(&task)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update task %s: %w", id.Hex(), err)
		}
		return &task, nil
	})
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := execute(r.breaker, func() (*mongo.DeleteResult, error) {
		return r.collection.DeleteOne(ctx, bson.M{"_id": id})
	})
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Count(ctx context.Context) (int64, error) {
	return execute(r.breaker, func() (int64, error) {
		n, err := r.collection.CountDocuments(ctx, bson.M{})
		if err != nil {
			return 0, fmt.Errorf("failed to count tasks: %w", err)
		}
		return n, nil
	})
}

func (r *TaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "assigneeId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	return nil
}
