package handlers

import (
	"net/http"

	"trello-project/microservices/tasktracker-service/models"
	"trello-project/microservices/tasktracker-service/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// ListTasks supports the optional assigneeId and status query parameters.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	tasks, err := h.service.ListTasks(r.Context(), q.Get("assigneeId"), q.Get("status"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, tasks)
	return nil
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	task, err := h.service.CreateTask(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, task)
	return nil
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) error {
	task, err := h.service.GetTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, task)
	return nil
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) error {
	var req models.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	task, err := h.service.UpdateTask(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, task)
	return nil
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *TaskHandler) TasksByAssignee(w http.ResponseWriter, r *http.Request) error {
	result, err := h.service.TasksByAssignee(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) error {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}
