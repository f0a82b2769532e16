package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every lifecycle state; pending is the sole initial state.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a single customer service request with its lifecycle state.
// Customer-supplied fields are immutable after creation; only the admin fields
// (status, admin_notes, confirmed_date, confirmed_time) change afterwards.
type Appointment struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ServiceType   string    `json:"service_type"`
	Location      string    `json:"location"`
	PreferredDate string    `json:"preferred_date"` // YYYY-MM-DD
	PreferredTime string    `json:"preferred_time"` // HH:MM
	Description   string    `json:"description,omitempty"`
	Status        Status    `json:"status"`
	AdminNotes    string    `json:"admin_notes,omitempty"`
	ConfirmedDate string    `json:"confirmed_date,omitempty"`
	ConfirmedTime string    `json:"confirmed_time,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Submission carries the customer-fillable fields of an appointment request.
type Submission struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ServiceType   string `json:"service_type"`
	Location      string `json:"location"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	Description   string `json:"description"`
}
