package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultUserRole = "Contributor"

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version   int                `bson:"__v" json:"-"`
}

// Assignee is the summary of a User embedded into a Task on read.
type Assignee struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Role string             `json:"role"`
}

func (u User) Summary() *Assignee {
	return &Assignee{ID: u.ID, Name: u.Name, Role: u.Role}
}

type CreateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
