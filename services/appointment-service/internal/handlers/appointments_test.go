package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/johnhamson/summit-appointments/libs/auth"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/storage"
)

const (
	testSecret   = "test-secret"
	testPassword = "hunter2-hunter2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMux wires the routes the way main does, against the in-memory store.
func newTestMux(t *testing.T) (*http.ServeMux, *storage.MemoryStore) {
	t.Helper()
	cat := catalog.Builtin()
	store := storage.NewMemoryStore(cat)
	logger := testLogger()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	appts := NewAppointmentHandler(store, cat, logger)
	admin := NewAdminHandler("admin", string(hash), testSecret, time.Hour, logger)
	requireAdmin := RequireAdmin(testSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/services", appts.Services)
	mux.HandleFunc("POST /api/appointments", appts.Create)
	mux.Handle("GET /api/appointments", requireAdmin(http.HandlerFunc(appts.List)))
	mux.Handle("GET /api/appointments/summary", requireAdmin(http.HandlerFunc(appts.Summary)))
	mux.Handle("GET /api/appointments/{id}", requireAdmin(http.HandlerFunc(appts.Get)))
	mux.Handle("PUT /api/appointments/{id}", requireAdmin(http.HandlerFunc(appts.Update)))
	mux.Handle("DELETE /api/appointments/{id}", requireAdmin(http.HandlerFunc(appts.Delete)))
	mux.HandleFunc("POST /api/admin/login", admin.Login)
	mux.Handle("GET /api/admin/verify", requireAdmin(http.HandlerFunc(admin.Verify)))
	return mux, store
}

func adminToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:  "admin",
		Role: "admin",
		Iat:  now.Unix(),
		Exp:  now.Add(time.Hour).Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func submissionBody() map[string]string {
	future := time.Now().UTC().Add(72 * time.Hour).Format("2006-01-02")
	return map[string]string{
		"name":           "Jane Doe",
		"email":          "jane@example.com",
		"phone":          "5551234567",
		"service_type":   "pc-repair",
		"location":       "12 Main St",
		"preferred_date": future,
		"preferred_time": "10:00",
		"description":    "Laptop will not boot.",
	}
}

func createAppointment(t *testing.T, mux *http.ServeMux) model.Appointment {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/api/appointments", "", submissionBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var appt model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return appt
}

func TestCreateAppointment(t *testing.T) {
	mux, _ := newTestMux(t)
	appt := createAppointment(t, mux)
	if appt.ID == "" {
		t.Fatal("expected generated id")
	}
	if appt.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", appt.Status)
	}
}

func TestCreateAppointmentValidationErrors(t *testing.T) {
	mux, _ := newTestMux(t)
	body := submissionBody()
	body["email"] = "not-an-email"
	body["phone"] = ""

	rec := doJSON(t, mux, http.MethodPost, "/api/appointments", "", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Errors["email"] == "" || resp.Errors["phone"] == "" {
		t.Fatalf("expected email and phone errors, got %v", resp.Errors)
	}
}

func TestCreateAppointmentTruncatesLongName(t *testing.T) {
	mux, _ := newTestMux(t)
	body := submissionBody()
	body["name"] = strings.Repeat("n", 80)

	rec := doJSON(t, mux, http.MethodPost, "/api/appointments", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var appt model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(appt.Name) != 48 {
		t.Fatalf("stored name length = %d, want 48", len(appt.Name))
	}
}

func TestCreateAppointmentBadJSON(t *testing.T) {
	mux, _ := newTestMux(t)
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	mux, _ := newTestMux(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/appointments"},
		{http.MethodGet, "/api/appointments/summary"},
		{http.MethodGet, "/api/appointments/no-such-id"},
		{http.MethodPut, "/api/appointments/no-such-id"},
		{http.MethodDelete, "/api/appointments/no-such-id"},
		{http.MethodGet, "/api/admin/verify"},
	} {
		rec := doJSON(t, mux, tc.method, tc.path, "", nil)
		// Auth runs before the lookup; a missing record must still read 401.
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestListFilterAndSearch(t *testing.T) {
	mux, _ := newTestMux(t)
	token := adminToken(t)
	first := createAppointment(t, mux)
	createAppointment(t, mux)

	status := model.StatusCancelled
	rec := doJSON(t, mux, http.MethodPut, "/api/appointments/"+first.ID, token, map[string]string{"status": string(status)})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body.String())
	}

	var appts []model.Appointment
	rec = doJSON(t, mux, http.MethodGet, "/api/appointments?status=cancelled", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &appts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(appts) != 1 || appts[0].ID != first.ID {
		t.Fatalf("cancelled filter returned %d records", len(appts))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/appointments?search=JANE", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &appts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("search returned %d records, want 2", len(appts))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/appointments?status=archived", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status filter: status = %d, want 400", rec.Code)
	}
}

func TestSummaryCounts(t *testing.T) {
	mux, _ := newTestMux(t)
	token := adminToken(t)
	createAppointment(t, mux)
	createAppointment(t, mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/appointments/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Counts map[model.Status]int `json:"counts"`
		Total  int                  `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || resp.Counts[model.StatusPending] != 2 {
		t.Fatalf("summary = %+v", resp)
	}
	if len(resp.Counts) != len(model.AllStatuses) {
		t.Fatalf("expected every status bucket, got %v", resp.Counts)
	}
}

func TestUpdateTransitionDefaultsConfirmedSlot(t *testing.T) {
	mux, _ := newTestMux(t)
	token := adminToken(t)
	created := createAppointment(t, mux)

	rec := doJSON(t, mux, http.MethodPut, "/api/appointments/"+created.ID, token, map[string]string{"status": "confirmed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var appt model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if appt.Status != model.StatusConfirmed {
		t.Fatalf("status = %s", appt.Status)
	}
	if appt.ConfirmedDate != created.PreferredDate || appt.ConfirmedTime != created.PreferredTime {
		t.Fatalf("confirmed slot = %s %s, want preferred defaults", appt.ConfirmedDate, appt.ConfirmedTime)
	}
}

func TestUpdateForbiddenField(t *testing.T) {
	mux, store := newTestMux(t)
	token := adminToken(t)
	created := createAppointment(t, mux)

	rec := doJSON(t, mux, http.MethodPut, "/api/appointments/"+created.ID, token, map[string]string{"email": "evil@example.com"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body %s", rec.Code, rec.Body.String())
	}

	got, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != created.Email {
		t.Fatalf("email mutated to %q", got.Email)
	}
}

func TestUpdateInvalidStatus(t *testing.T) {
	mux, _ := newTestMux(t)
	token := adminToken(t)
	created := createAppointment(t, mux)

	rec := doJSON(t, mux, http.MethodPut, "/api/appointments/"+created.ID, token, map[string]string{"status": "archived"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Errors["status"] == "" {
		t.Fatalf("expected status field error, got %v", resp.Errors)
	}
}

func TestUpdateMissingAppointment(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, http.MethodPut, "/api/appointments/no-such-id", adminToken(t), map[string]string{"status": "confirmed"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteAppointment(t *testing.T) {
	mux, _ := newTestMux(t)
	token := adminToken(t)
	created := createAppointment(t, mux)

	rec := doJSON(t, mux, http.MethodDelete, "/api/appointments/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodDelete, "/api/appointments/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/appointments/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestServicesCatalog(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, http.MethodGet, "/api/services", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var services []catalog.Service
	if err := json.Unmarshal(rec.Body.Bytes(), &services); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(services) != 5 {
		t.Fatalf("len(services) = %d, want 5", len(services))
	}
	for _, s := range services {
		if s.ID == "" || s.Name == "" {
			t.Fatalf("incomplete service entry %+v", s)
		}
	}
}
