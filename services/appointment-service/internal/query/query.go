// Package query derives filtered, searchable views over the appointment
// collection for administrator consumption.
package query

import (
	"sort"
	"strings"

	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/model"
)

// StatusAll is the sentinel that disables status filtering.
const StatusAll = "all"

type Options struct {
	Status string // exact status, StatusAll, or empty (same as all)
	Search string // case-insensitive substring over name, email, service display name
}

// Filter applies the status and search filters with AND semantics. The search
// text matches a record if it is a substring of the name, the email, or the
// service display name resolved from the catalog (OR across fields).
func Filter(appts []model.Appointment, opts Options, cat catalog.Provider) []model.Appointment {
	status := strings.TrimSpace(opts.Status)
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if status != "" && status != StatusAll && string(a.Status) != status {
			continue
		}
		if search != "" && !matchesSearch(a, search, cat) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesSearch(a model.Appointment, lowered string, cat catalog.Provider) bool {
	if strings.Contains(strings.ToLower(a.Name), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Email), lowered) {
		return true
	}
	service := a.ServiceType
	if cat != nil {
		if name, ok := cat.DisplayName(a.ServiceType); ok {
			service = name
		}
	}
	return strings.Contains(strings.ToLower(service), lowered)
}

// CountsByStatus partitions the collection by status. Every status bucket is
// present in the result, and the values always sum to len(appts).
func CountsByStatus(appts []model.Appointment) map[model.Status]int {
	counts := make(map[model.Status]int, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		counts[s] = 0
	}
	for _, a := range appts {
		counts[a.Status]++
	}
	return counts
}

// SortNewestFirst returns a copy ordered by created_at descending, the
// administrator-facing default. The store's List is unordered by contract.
func SortNewestFirst(appts []model.Appointment) []model.Appointment {
	out := make([]model.Appointment, len(appts))
	copy(out, appts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
