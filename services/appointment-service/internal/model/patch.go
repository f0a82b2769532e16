package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Patch is the set of fields an administrator may change on an existing
// appointment. Customer-supplied fields are deliberately unrepresentable here.
type Patch struct {
	Status        *Status
	AdminNotes    *string
	ConfirmedDate *string
	ConfirmedTime *string
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.AdminNotes == nil && p.ConfirmedDate == nil && p.ConfirmedTime == nil
}

// ForbiddenFieldError reports an attempt to change a field the admin update
// path does not own (customer-supplied fields, or anything unknown).
type ForbiddenFieldError struct {
	Field string
}

func (e *ForbiddenFieldError) Error() string {
	return fmt.Sprintf("field %q cannot be modified", e.Field)
}

// InvalidStatusError reports a patch carrying a status outside the enum.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Value)
}

// ParsePatch decodes an admin update body. Any key outside the four admin
// fields fails with ForbiddenFieldError; the store is append-only with respect
// to what the customer submitted.
func ParsePatch(body []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, fmt.Errorf("invalid patch body: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var p Patch
	for _, k := range keys {
		switch k {
		case "status":
			var v string
			if err := json.Unmarshal(raw[k], &v); err != nil {
				return Patch{}, fmt.Errorf("invalid status value: %w", err)
			}
			s := Status(v)
			if !s.Valid() {
				return Patch{}, &InvalidStatusError{Value: v}
			}
			p.Status = &s
		case "admin_notes":
			if err := assignString(raw[k], &p.AdminNotes); err != nil {
				return Patch{}, fmt.Errorf("invalid admin_notes value: %w", err)
			}
		case "confirmed_date":
			if err := assignString(raw[k], &p.ConfirmedDate); err != nil {
				return Patch{}, fmt.Errorf("invalid confirmed_date value: %w", err)
			}
		case "confirmed_time":
			if err := assignString(raw[k], &p.ConfirmedTime); err != nil {
				return Patch{}, fmt.Errorf("invalid confirmed_time value: %w", err)
			}
		default:
			return Patch{}, &ForbiddenFieldError{Field: k}
		}
	}
	return p, nil
}

func assignString(raw json.RawMessage, dst **string) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
