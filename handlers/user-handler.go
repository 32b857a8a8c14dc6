package handlers

import (
	"net/http"

	"trello-project/microservices/tasktracker-service/models"
	"trello-project/microservices/tasktracker-service/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, user)
	return nil
}
