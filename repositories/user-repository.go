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

const UsersCollection = "users"

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type UserRepo struct {
	collection *mongo.Collection
	breaker    *gobreaker.CircuitBreaker
}

func NewUserRepo(collection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *UserRepo {
	return &UserRepo{collection: collection, breaker: breaker}
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	return execute(r.breaker, func() ([]models.User, error) {
		cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve users: %w", err)
		}
		users := []models.User{}
		if err := cursor.All(ctx, &users); err != nil {
			return nil, fmt.Errorf("failed to decode users: %w", err)
		}
		return users, nil
	})
}

// Insert assigns the id and timestamps before writing.
func (r *UserRepo) Insert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 0

	_, err := execute(r.breaker, func() (*mongo.InsertOneResult, error) {
		return r.collection.InsertOne(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return execute(r.breaker, func() (*models.User, error) {
		var user models.User
		err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve user %s: %w", id.Hex(), err)
		}
		return &user, nil
	})
}

// FindByIDs returns the users that exist among ids, in no particular order.
func (r *UserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return execute(r.breaker, func() ([]models.User, error) {
		opts := options.Find().SetProjection(bson.M{"name": 1, "role": 1})
		cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignees: %w", err)
		}
		users := []models.User{}
		if err := cursor.All(ctx, &users); err != nil {
			return nil, fmt.Errorf("failed to decode assignees: %w", err)
		}
		return users, nil
	})
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return execute(r.breaker, func() (int64, error) {
		n, err := r.collection.CountDocuments(ctx, bson.M{})
		if err != nil {
			return 0, fmt.Errorf("failed to count users: %w", err)
		}
		return n, nil
	})
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
