package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"trello-project/microservices/tasktracker-service/logging"
	"trello-project/microservices/tasktracker-service/models"
	"trello-project/microservices/tasktracker-service/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStore interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type TaskService struct {
	tasks TaskStore
	users UserStore
}

func NewTaskService(tasks TaskStore, users UserStore) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

const unassigned = "Unassigned"

// objectID reports whether s is a well-formed ObjectID.
func objectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// assigneeRef keeps a reference only when it parses; anything else becomes
// no assignee.
func assigneeRef(s string) *primitive.ObjectID {
	if id, ok := objectID(s); ok {
		return &id
	}
	return nil
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDueDate accepts RFC 3339, the same without a zone (read as UTC), a bare
// date, or epoch milliseconds.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, invalid("Invalid due date.")
}

func dueDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDueDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func priority(s string) (models.TaskPriority, error) {
	p := models.TaskPriority(s)
	if !p.Valid() {
		return "", invalid("Priority must be one of low, medium, high.")
	}
	return p, nil
}

func status(s string) (models.TaskStatus, error) {
	st := models.TaskStatus(s)
	if !st.Valid() {
		return "", invalid("Status must be one of todo, in-progress, done.")
	}
	return st, nil
}

// resolveAssignees fills in Assignee for every task whose reference points at
// an existing user, using a single lookup.
func (s *TaskService) resolveAssignees(ctx context.Context, tasks []models.Task) error {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, t := range tasks {
		if t.AssigneeID != nil && !seen[*t.AssigneeID] {
			seen[*t.AssigneeID] = true
			ids = append(ids, *t.AssigneeID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for i := range tasks {
		tasks[i].Assignee = nil
		if tasks[i].AssigneeID == nil {
			continue
		}
		if u, ok := byID[*tasks[i].AssigneeID]; ok {
			tasks[i].Assignee = u.Summary()
		}
	}
	return nil
}

func (s *TaskService) resolveOne(ctx context.Context, task *models.Task) (*models.Task, error) {
	one := []models.Task{*task}
	if err := s.resolveAssignees(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// ListTasks returns tasks newest first. A malformed assigneeID is ignored
// rather than rejected; status is matched literally.
func (s *TaskService) ListTasks(ctx context.Context, assigneeID, statusFilter string) ([]models.Task, error) {
	filter := models.TaskFilter{Status: statusFilter}
	if assigneeID != "" {
		filter.AssigneeID = assigneeRef(assigneeID)
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("Title is required.")
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    models.PriorityMedium,
		Status:      models.StatusTodo,
		AssigneeID:  assigneeRef(req.AssigneeID),
	}

	var err error
	if req.Priority != "" {
		if task.Priority, err = priority(req.Priority); err != nil {
			return nil, err
		}
	}
	if req.Status != "" {
		if task.Status, err = status(req.Status); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if task.DueDate, err = dueDate(string(*req.DueDate)); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Created task %s", task.ID.Hex())

	return s.resolveOne(ctx, task)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, errTaskNotFound
	}

	task, err := s.tasks.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, errTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, task)
}

// buildUpdate turns the fields present in req into a TaskUpdate. Null clears
// the nullable fields and resets description to empty.
func buildUpdate(req models.UpdateTaskRequest) (models.TaskUpdate, error) {
	var u models.TaskUpdate

	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)
		if req.Title.Null || title == "" {
			return u, invalid("Title is required.")
		}
		u.Title = &title
	}
	if req.Description.Set {
		desc := strings.TrimSpace(req.Description.Value)
		u.Description = &desc
	}
	if req.Priority.Set {
		p, err := priority(req.Priority.Value)
		if err != nil {
			return u, err
		}
		u.Priority = &p
	}
	if req.Status.Set {
		st, err := status(req.Status.Value)
		if err != nil {
			return u, err
		}
		u.Status = &st
	}
	if req.DueDate.Set {
		u.SetDueDate = true
		if !req.DueDate.Null {
			d, err := dueDate(string(req.DueDate.Value))
			if err != nil {
				return u, err
			}
			u.DueDate = d
		}
	}
	if req.AssigneeID.Set {
		u.SetAssignee = true
		if !req.AssigneeID.Null {
			u.AssigneeID = assigneeRef(req.AssigneeID.Value)
		}
	}
	return u, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, errTaskNotFound
	}

	update, err := buildUpdate(req)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, oid, update)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, errTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Updated task %s", oid.Hex())

	return s.resolveOne(ctx, task)
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return errTaskNotFound
	}

	err := s.tasks.Delete(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return errTaskNotFound
	}
	if err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Deleted task %s", oid.Hex())
	return nil
}

// TasksByAssignee returns a user together with the tasks assigned to them.
func (s *TaskService) TasksByAssignee(ctx context.Context, userID string) (*models.AssigneeTasks, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, errUserNotFound
	}

	user, err := s.users.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, models.TaskFilter{AssigneeID: &oid})
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Assignee = user.Summary()
	}
	return &models.AssigneeTasks{Assignee: *user, Tasks: tasks}, nil
}

func (s *TaskService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	taskCount, err := s.tasks.Count(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, "", "")
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{
		Totals:     models.DashboardTotals{Tasks: taskCount, Users: userCount},
		ByStatus:   map[string]int{},
		ByAssignee: map[string]int{},
	}
	for _, t := range tasks {
		d.ByStatus[string(t.Status)]++
		name := unassigned
		if t.Assignee != nil {
			name = t.Assignee.Name
		}
		d.ByAssignee[name]++
	}
	return d, nil
}
