package model

import "fmt"

// Business hours run 09:00-17:00; bookable slots start every half hour, the
// last one at 16:30.
const (
	slotOpenHour  = 9
	slotCloseHour = 17
)

var timeSlots = buildTimeSlots()

func buildTimeSlots() []string {
	var slots []string
	for h := slotOpenHour; h < slotCloseHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return slots
}

// TimeSlots returns the fixed set of bookable start times.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func IsTimeSlot(v string) bool {
	for _, s := range timeSlots {
		if s == v {
			return true
		}
	}
	return false
}
