package services

import (
	"context"
	"strings"

	"trello-project/microservices/tasktracker-service/logging"
	"trello-project/microservices/tasktracker-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// ListUsers returns every user, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("Name is required.")
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.DefaultUserRole
	}

	user := &models.User{Name: name, Role: role}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_CREATED, Description: Created user %s (%s)", user.ID.Hex(), user.Role)
	return user, nil
}
