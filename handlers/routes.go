package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts the users and tasks routers under /api along with the
// health check and dashboard.
func NewRouter(users *UserHandler, tasks *TaskHandler) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/", Health).Methods(http.MethodGet)
	r.Handle("/api/dashboard", Handle(tasks.Dashboard)).Methods(http.MethodGet)

	userRoutes := r.PathPrefix("/api/users").Subrouter()
	taskRoutes := r.PathPrefix("/api/tasks").Subrouter()

	// Collection roots answer with and without a trailing slash.
	for _, root := range []string{"", "/"} {
		userRoutes.Handle(root, Handle(users.ListUsers)).Methods(http.MethodGet)
		userRoutes.Handle(root, Handle(users.CreateUser)).Methods(http.MethodPost)

		taskRoutes.Handle(root, Handle(tasks.ListTasks)).Methods(http.MethodGet)
		taskRoutes.Handle(root, Handle(tasks.CreateTask)).Methods(http.MethodPost)
	}

	taskRoutes.Handle("/by-assignee/{userId}", Handle(tasks.TasksByAssignee)).Methods(http.MethodGet)
	taskRoutes.Handle("/{id}", Handle(tasks.GetTask)).Methods(http.MethodGet)
	taskRoutes.Handle("/{id}", Handle(tasks.UpdateTask)).Methods(http.MethodPatch)
	taskRoutes.Handle("/{id}", Handle(tasks.DeleteTask)).Methods(http.MethodDelete)

	return r
}
