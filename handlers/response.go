package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"trello-project/microservices/tasktracker-service/logging"
	"trello-project/microservices/tasktracker-service/services"
)

type message struct {
	Message string `json:"message"`
}

// payloadError marks a body that is not valid JSON for the endpoint's schema.
type payloadError struct {
	cause error
}

func (e *payloadError) Error() string { return "Invalid request payload." }
func (e *payloadError) Unwrap() error { return e.cause }

// handlerFunc is an http handler that reports failures instead of writing
// them; Handle turns the error into a response.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func Handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *services.ValidationError
		nf     *services.NotFoundError
		perr   *payloadError
		tooBig *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooBig):
		logging.Logger.Warnf("%s %s: request body over %d bytes", r.Method, r.URL.Path, tooBig.Limit)
		writeJSON(w, http.StatusRequestEntityTooLarge, message{"Request body too large."})
	case errors.As(err, &perr):
		logging.Logger.Warnf("%s %s: invalid payload: %v", r.Method, r.URL.Path, perr.cause)
		writeJSON(w, http.StatusBadRequest, message{perr.Error()})
	case errors.As(err, &verr):
		logging.Logger.Warnf("%s %s: %s", r.Method, r.URL.Path, verr.Message)
		writeJSON(w, http.StatusBadRequest, message{verr.Message})
	case errors.As(err, &nf):
		logging.Logger.Infof("%s %s: %s", r.Method, r.URL.Path, nf.Error())
		writeJSON(w, http.StatusNotFound, message{nf.Error()})
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %+v", r.Method, r.URL.Path, err)
		msg := err.Error()
		if msg == "" {
			msg = "Internal server error."
		}
		writeJSON(w, http.StatusInternalServerError, message{msg})
	}
}

// decodeJSON reads the request body into dst. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return err
	}
	return &payloadError{cause: err}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, message{"Route " + r.Method + " " + r.URL.Path + " not found."})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, message{"Method Not Allowed"})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, message{"Task Tracker API is healthy."})
}
