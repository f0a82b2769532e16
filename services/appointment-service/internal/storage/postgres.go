package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/johnhamson/summit-appointments/libs/db"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/outbox"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/validation"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/workflow"
)

const (
	EventAppointmentRequested     = "appointment.requested.v1"
	EventAppointmentStatusChanged = "appointment.status_changed.v1"
	EventAppointmentDeleted       = "appointment.deleted.v1"
)

const apptColumns = `
	id, name, email, phone, service_type, location,
	preferred_date, preferred_time, COALESCE(description, ''),
	status, COALESCE(admin_notes, ''), COALESCE(confirmed_date, ''), COALESCE(confirmed_time, ''),
	created_at, updated_at`

// PostgresStore is the production store. Same-id update serialization comes
// from SELECT ... FOR UPDATE; lifecycle events land in the outbox table in
// the same transaction as the row change.
type PostgresStore struct {
	pool   *db.Pool
	cat    catalog.Provider
	outbox *outbox.Repository
}

func NewPostgresStore(pool *db.Pool, cat catalog.Provider, outboxRepo *outbox.Repository) *PostgresStore {
	return &PostgresStore{pool: pool, cat: cat, outbox: outboxRepo}
}

func (s *PostgresStore) Create(ctx context.Context, sub model.Submission) (model.Appointment, error) {
	if errs := validation.Validate(sub, s.cat, time.Now().UTC()); errs != nil {
		return model.Appointment{}, errs
	}

	now := time.Now().UTC()
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, name, email, phone, service_type, location,
			 preferred_date, preferred_time, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, appt.ID, appt.Name, appt.Email, appt.Phone, appt.ServiceType, appt.Location,
		appt.PreferredDate, appt.PreferredTime, appt.Description, appt.Status, appt.CreatedAt, appt.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	if err := s.insertEvent(ctx, tx, EventAppointmentRequested, appt); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, err
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+apptColumns+` FROM appointments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch model.Patch) (model.Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}

	updated, err := workflow.Apply(appt, patch, time.Now().UTC())
	if err != nil {
		return model.Appointment{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			admin_notes = $3,
			confirmed_date = $4,
			confirmed_time = $5,
			updated_at = $6
		WHERE id = $1
	`, id, updated.Status, updated.AdminNotes, updated.ConfirmedDate, updated.ConfirmedTime, updated.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	if updated.Status != appt.Status {
		if err := s.insertEvent(ctx, tx, EventAppointmentStatusChanged, updated); err != nil {
			return model.Appointment{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `DELETE FROM appointments WHERE id = $1 RETURNING `+apptColumns, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.insertEvent(ctx, tx, EventAppointmentDeleted, appt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	if s.outbox == nil {
		return nil
	}
	payload, err := json.Marshal(appt)
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.Name,
		&appt.Email,
		&appt.Phone,
		&appt.ServiceType,
		&appt.Location,
		&appt.PreferredDate,
		&appt.PreferredTime,
		&appt.Description,
		&appt.Status,
		&appt.AdminNotes,
		&appt.ConfirmedDate,
		&appt.ConfirmedTime,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

var _ Store = (*PostgresStore)(nil)
