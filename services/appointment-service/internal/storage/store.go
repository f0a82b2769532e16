// Package storage owns the authoritative appointment collection: identity,
// timestamps, and persisted status transitions.
package storage

import (
	"context"
	"errors"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
)

var ErrNotFound = errors.New("appointment not found")

// Store is the appointment collection contract. Create validates the
// submission itself rather than trusting callers to have done so; Update and
// Delete on a vanished record report ErrNotFound, never silent success.
// Updates against the same id serialize; creation is atomic.
type Store interface {
	Create(ctx context.Context, sub model.Submission) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	// List is unordered by contract; callers needing order sort explicitly.
	List(ctx context.Context) ([]model.Appointment, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Appointment, error)
	Delete(ctx context.Context, id string) error
}
