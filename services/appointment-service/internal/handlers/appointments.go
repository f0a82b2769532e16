package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/query"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/storage"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/validation"
)

type AppointmentHandler struct {
	store  storage.Store
	cat    catalog.Provider
	logger *slog.Logger
}

func NewAppointmentHandler(store storage.Store, cat catalog.Provider, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: store, cat: cat, logger: logger}
}

// Create handles the unauthenticated customer submission. Free-text fields
// are truncated to their maxima before validation, mirroring the form-side
// input limits, and validation then reports every remaining violation in one
// pass.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.ServiceType = strings.TrimSpace(sub.ServiceType)
	sub.Location = strings.TrimSpace(sub.Location)
	sub.PreferredDate = strings.TrimSpace(sub.PreferredDate)
	sub.PreferredTime = strings.TrimSpace(sub.PreferredTime)
	sub.Description = strings.TrimSpace(sub.Description)
	validation.Truncate(&sub)

	appt, err := h.store.Create(r.Context(), sub)
	if err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			writeFieldErrors(w, fieldErrs)
			return
		}
		h.logger.Error("appointment create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	h.logger.Info("appointment requested",
		"appointment_id", appt.ID,
		"service_type", appt.ServiceType,
		"preferred_date", appt.PreferredDate,
	)
	writeJSON(w, http.StatusCreated, appt)
}

// List returns the collection newest first, optionally filtered server-side
// by status and search text.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := query.Options{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	if opts.Status != "" && opts.Status != query.StatusAll && !model.Status(opts.Status).Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	appts, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	filtered := query.Filter(query.SortNewestFirst(appts), opts, h.cat)
	writeJSON(w, http.StatusOK, filtered)
}

// Summary returns the disjoint per-status counts used by the admin console
// header.
func (h *AppointmentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("appointment summary failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts": query.CountsByStatus(appts),
		"total":  len(appts),
	})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("appointment get failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update applies an admin patch. The patch grammar is exactly the four admin
// fields; anything else fails before a write is attempted, and the record
// stays untouched on any error.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	patch, err := model.ParsePatch(body)
	if err != nil {
		var forbidden *model.ForbiddenFieldError
		if errors.As(err, &forbidden) {
			writeError(w, http.StatusForbidden, forbidden.Error())
			return
		}
		var badStatus *model.InvalidStatusError
		if errors.As(err, &badStatus) {
			writeFieldErrors(w, map[string]string{"status": badStatus.Error()})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid patch body")
		return
	}

	appt, err := h.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("appointment update failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	h.logger.Info("appointment updated",
		"appointment_id", appt.ID,
		"status", appt.Status,
		"admin", AdminFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, appt)
}

// Delete is a hard delete; deleting a vanished record reports 404 rather
// than pretending success.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("appointment delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}

	h.logger.Info("appointment deleted", "appointment_id", id, "admin", AdminFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Services exposes the read-only catalog consumed by the booking form.
func (h *AppointmentHandler) Services(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cat.Services())
}
