package services

// ValidationError means the request was understood but a field is missing or
// out of range.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError means a by-id lookup matched nothing, including ids that are
// not valid ObjectIDs.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found."
}

var (
	errTaskNotFound = &NotFoundError{Resource: "Task"}
	errUserNotFound = &NotFoundError{Resource: "User"}
)
