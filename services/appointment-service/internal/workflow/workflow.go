// Package workflow implements the appointment status state machine and the
// rules for applying administrator patches. Stores call Apply under their own
// serialization point so concurrent updates on one record cannot interleave.
package workflow

import (
	"fmt"
	"time"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
)

// Transitions maps each status to the statuses it may move to. The
// administrator is trusted, so every state is reachable from every other
// (completed -> pending is a legal correction). Tightening the lifecycle
// later means editing this table, not the engine.
var Transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted: {model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled},
	model.StatusCancelled: {model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled},
}

// TransitionError reports a status move the table does not allow.
type TransitionError struct {
	From, To model.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

func CanTransition(from, to model.Status) bool {
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply returns a copy of appt with the patch applied.
//
// A patch carrying a status is a workflow transition: transitioning to the
// current status is legal and only applies note/date/time changes, and if the
// record has no confirmed date/time yet and the patch supplies none, they
// default to the preferred values (first-confirmation default). A patch
// without a status applies its fields literally, which lets an administrator
// pre-stage a confirmed slot or edit notes without touching the lifecycle.
func Apply(appt model.Appointment, patch model.Patch, now time.Time) (model.Appointment, error) {
	if patch.Status != nil {
		to := *patch.Status
		if !to.Valid() {
			return model.Appointment{}, &model.InvalidStatusError{Value: string(to)}
		}
		if !CanTransition(appt.Status, to) {
			return model.Appointment{}, &TransitionError{From: appt.Status, To: to}
		}
		appt.Status = to

		if patch.ConfirmedDate != nil {
			appt.ConfirmedDate = *patch.ConfirmedDate
		} else if appt.ConfirmedDate == "" {
			appt.ConfirmedDate = appt.PreferredDate
		}
		if patch.ConfirmedTime != nil {
			appt.ConfirmedTime = *patch.ConfirmedTime
		} else if appt.ConfirmedTime == "" {
			appt.ConfirmedTime = appt.PreferredTime
		}
	} else {
		if patch.ConfirmedDate != nil {
			appt.ConfirmedDate = *patch.ConfirmedDate
		}
		if patch.ConfirmedTime != nil {
			appt.ConfirmedTime = *patch.ConfirmedTime
		}
	}

	if patch.AdminNotes != nil {
		appt.AdminNotes = *patch.AdminNotes
	}

	appt.UpdatedAt = now.UTC()
	return appt, nil
}
