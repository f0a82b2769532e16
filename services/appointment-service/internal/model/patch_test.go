package model

import (
	"errors"
	"testing"
)

func TestParsePatchFull(t *testing.T) {
	p, err := ParsePatch([]byte(`{
		"status": "confirmed",
		"admin_notes": "bring spare PSU",
		"confirmed_date": "2026-03-15",
		"confirmed_time": "10:00"
	}`))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if p.Status == nil || *p.Status != StatusConfirmed {
		t.Fatalf("status = %v", p.Status)
	}
	if p.AdminNotes == nil || *p.AdminNotes != "bring spare PSU" {
		t.Fatalf("admin_notes = %v", p.AdminNotes)
	}
	if p.ConfirmedDate == nil || *p.ConfirmedDate != "2026-03-15" {
		t.Fatalf("confirmed_date = %v", p.ConfirmedDate)
	}
	if p.ConfirmedTime == nil || *p.ConfirmedTime != "10:00" {
		t.Fatalf("confirmed_time = %v", p.ConfirmedTime)
	}
}

func TestParsePatchEmptyObject(t *testing.T) {
	p, err := ParsePatch([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if !p.Empty() {
		t.Fatalf("expected empty patch, got %+v", p)
	}
}

func TestParsePatchRejectsCustomerFields(t *testing.T) {
	for _, field := range []string{"email", "name", "preferred_date", "bogus"} {
		_, err := ParsePatch([]byte(`{"` + field + `": "x"}`))
		var forbidden *ForbiddenFieldError
		if !errors.As(err, &forbidden) {
			t.Fatalf("field %q: expected ForbiddenFieldError, got %v", field, err)
		}
		if forbidden.Field != field {
			t.Fatalf("forbidden.Field = %q, want %q", forbidden.Field, field)
		}
	}
}

func TestParsePatchRejectsInvalidStatus(t *testing.T) {
	_, err := ParsePatch([]byte(`{"status": "archived"}`))
	var invalid *InvalidStatusError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
	if invalid.Value != "archived" {
		t.Fatalf("invalid.Value = %q", invalid.Value)
	}
}

func TestParsePatchRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"status"`, `not json`} {
		if _, err := ParsePatch([]byte(body)); err == nil {
			t.Fatalf("body %q: expected error", body)
		}
	}
}

func TestParsePatchRejectsWrongValueType(t *testing.T) {
	if _, err := ParsePatch([]byte(`{"admin_notes": 7}`)); err == nil {
		t.Fatal("expected error for numeric admin_notes")
	}
	if _, err := ParsePatch([]byte(`{"status": 3}`)); err == nil {
		t.Fatal("expected error for numeric status")
	}
}
