// Package validation holds the field rules gating appointment submissions.
// The same rules run at every entry point so the pre-submit and
// server-authoritative paths cannot drift apart.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
)

const (
	MaxNameLen        = 48
	MaxLocationLen    = 200
	MaxDescriptionLen = 1024
	MinPhoneLen       = 10
	MaxPhoneLen       = 20
)

const dateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Errors maps field name to the first rule violation found for that field.
// It satisfies error so stores can refuse unvalidated input.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Truncate clips the free-text fields to their maxima before validation runs.
// Length validation still exists behind it for callers that bypass this.
func Truncate(sub *model.Submission) {
	sub.Name = truncateRunes(sub.Name, MaxNameLen)
	sub.Location = truncateRunes(sub.Location, MaxLocationLen)
	sub.Description = truncateRunes(sub.Description, MaxDescriptionLen)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Validate checks every field rule independently and reports at most one
// message per field (required, then format, then length). A nil/empty result
// means the submission is acceptable. Pure over the input, the catalog, and
// the supplied clock.
func Validate(sub model.Submission, cat catalog.Provider, now time.Time) Errors {
	errs := Errors{}

	checkText(errs, "name", sub.Name, MaxNameLen, true)
	checkEmail(errs, sub.Email)
	checkPhone(errs, sub.Phone)
	checkServiceType(errs, sub.ServiceType, cat)
	checkText(errs, "location", sub.Location, MaxLocationLen, true)
	checkDate(errs, sub.PreferredDate, now)
	checkTime(errs, sub.PreferredTime)
	checkText(errs, "description", sub.Description, MaxDescriptionLen, false)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkText(errs Errors, field, value string, max int, required bool) {
	if value == "" {
		if required {
			errs[field] = field + " is required"
		}
		return
	}
	if !printableASCII(value) {
		errs[field] = field + " contains unsupported characters"
		return
	}
	if len([]rune(value)) > max {
		errs[field] = fmt.Sprintf("%s must be at most %d characters", field, max)
	}
}

func checkEmail(errs Errors, value string) {
	if value == "" {
		errs["email"] = "email is required"
		return
	}
	if !emailPattern.MatchString(value) {
		errs["email"] = "email must be a valid address"
	}
}

func checkPhone(errs Errors, value string) {
	if value == "" {
		errs["phone"] = "phone is required"
		return
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')':
		default:
			errs["phone"] = "phone contains unsupported characters"
			return
		}
	}
	if n := len(value); n < MinPhoneLen || n > MaxPhoneLen {
		errs["phone"] = fmt.Sprintf("phone must be %d-%d characters", MinPhoneLen, MaxPhoneLen)
	}
}

func checkServiceType(errs Errors, value string, cat catalog.Provider) {
	if value == "" {
		errs["service_type"] = "service_type is required"
		return
	}
	if cat == nil || !cat.Has(value) {
		errs["service_type"] = "service_type is not a known service"
	}
}

func checkDate(errs Errors, value string, now time.Time) {
	if value == "" {
		errs["preferred_date"] = "preferred_date is required"
		return
	}
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		errs["preferred_date"] = "preferred_date must be YYYY-MM-DD"
		return
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		errs["preferred_date"] = "preferred_date cannot be in the past"
	}
}

func checkTime(errs Errors, value string) {
	if value == "" {
		errs["preferred_time"] = "preferred_time is required"
		return
	}
	if !model.IsTimeSlot(value) {
		errs["preferred_time"] = "preferred_time must be a half-hour slot between 09:00 and 16:30"
	}
}

// printableASCII reports whether every rune is in the 7-bit printable range.
// Multibyte and control characters are rejected; see the docs for the
// tradeoff around international names.
func printableASCII(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}
