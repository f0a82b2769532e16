package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/validation"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/workflow"
)

// MemoryStore keeps appointments in process memory. It backs local
// development without Postgres and the test suite. The mutex is the
// serialization point: concurrent updates on one id apply one after the
// other, never interleaved.
type MemoryStore struct {
	cat catalog.Provider
	now func() time.Time

	mu    sync.RWMutex
	appts map[string]model.Appointment
}

func NewMemoryStore(cat catalog.Provider) *MemoryStore {
	return &MemoryStore{
		cat:   cat,
		now:   func() time.Time { return time.Now().UTC() },
		appts: make(map[string]model.Appointment),
	}
}

func (s *MemoryStore) Create(_ context.Context, sub model.Submission) (model.Appointment, error) {
	if errs := validation.Validate(sub, s.cat, s.now()); errs != nil {
		return model.Appointment{}, errs
	}

	now := s.now()
	appt := model.Appointment{
		ID:            uuid.NewString(),
		Name:          sub.Name,
		Email:         sub.Email,
		Phone:         sub.Phone,
		ServiceType:   sub.ServiceType,
		Location:      sub.Location,
		PreferredDate: sub.PreferredDate,
		PreferredTime: sub.PreferredTime,
		Description:   sub.Description,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.appts[appt.ID] = appt
	s.mu.Unlock()
	return appt, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return appt, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, 0, len(s.appts))
	for _, appt := range s.appts {
		out = append(out, appt)
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch model.Patch) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	updated, err := workflow.Apply(appt, patch, s.now())
	if err != nil {
		return model.Appointment{}, err
	}
	s.appts[id] = updated
	return updated, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[id]; !ok {
		return ErrNotFound
	}
	delete(s.appts, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
