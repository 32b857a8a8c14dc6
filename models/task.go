package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is both the stored document and the response body. Assignee is never
// persisted; it is filled in by the service after looking up AssigneeID.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Priority    TaskPriority        `bson:"priority" json:"priority"`
	Status      TaskStatus          `bson:"status" json:"status"`
	AssigneeID  *primitive.ObjectID `bson:"assigneeId" json:"assigneeId"`
	Assignee    *Assignee           `bson:"-" json:"assignee"`
	DueDate     *time.Time          `bson:"dueDate" json:"dueDate"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	Version     int                 `bson:"__v" json:"-"`
}

// TaskFilter narrows a task listing. A nil AssigneeID or empty Status means no
// restriction on that field.
type TaskFilter struct {
	AssigneeID *primitive.ObjectID
	Status     string
}

// TaskUpdate holds already validated changes. Nil pointers leave a field
// untouched; the Set flags distinguish "clear" from "leave alone" for the two
// nullable fields.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *TaskPriority
	Status      *TaskStatus

	SetDueDate bool
	DueDate    *time.Time

	SetAssignee bool
	AssigneeID  *primitive.ObjectID
}

// maxEpochMillis is the largest distance from the epoch a date can have.
const maxEpochMillis = 8.64e15

// DateInput is a due date as clients send it: a string, or a JSON number of
// epoch milliseconds. Numbers are kept as integer millisecond text.
type DateInput string

func (d *DateInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DateInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	f, err := n.Float64()
	if err != nil || math.Abs(f) > maxEpochMillis {
		// left as is so that it fails date parsing
		*d = DateInput(n.String())
		return nil
	}
	*d = DateInput(strconv.FormatInt(int64(f), 10))
	return nil
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssigneeID  string     `json:"assigneeId"`
	DueDate     *DateInput `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Priority    Optional[string]    `json:"priority"`
	Status      Optional[string]    `json:"status"`
	AssigneeID  Optional[string]    `json:"assigneeId"`
	DueDate     Optional[DateInput] `json:"dueDate"`
}

type AssigneeTasks struct {
	Assignee User   `json:"assignee"`
	Tasks    []Task `json:"tasks"`
}

type DashboardTotals struct {
	Tasks int64 `json:"tasks"`
	Users int64 `json:"users"`
}

type Dashboard struct {
	Totals     DashboardTotals `json:"totals"`
	ByStatus   map[string]int  `json:"byStatus"`
	ByAssignee map[string]int  `json:"byAssignee"`
}
