package repositories

import (
	"context"
	"errors"
	"time"

	"trello-project/microservices/tasktracker-service/logging"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a by-id operation matches no document.
var ErrNotFound = errors.New("document not found")

// NewStoreBreaker guards calls to MongoDB. Missing documents and requests
// abandoned by the caller never count towards tripping it.
func NewStoreBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			switch {
			case err == nil,
				errors.Is(err, ErrNotFound),
				errors.Is(err, mongo.ErrNoDocuments),
				errors.Is(err, context.Canceled),
				errors.Is(err, context.DeadlineExceeded):
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
