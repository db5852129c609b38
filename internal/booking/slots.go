package booking

import (
	"slices"

	"github.com/wolfman30/dentaai-platform/internal/records"
)

// FixedSlots is the daily slot universe. The 11:00-13:00 gap is lunch.
var FixedSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// IsSlot reports whether t is one of the fixed daily slots.
func IsSlot(t string) bool {
	return slices.Contains(FixedSlots, t)
}

// FreeSlots returns the fixed slots not held by an active appointment in
// appts, preserving slot order. Callers pass one doctor's appointments for
// one date.
func FreeSlots(appts []records.Appointment) []string {
	taken := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		if a.Status.Active() {
			taken[a.Time] = struct{}{}
		}
	}
	out := make([]string, 0, len(FixedSlots))
	for _, slot := range FixedSlots {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	return out
}

// DoctorFilter decides whether a doctor may be offered for a date. Doctors
// store availableDays but nothing enforces them yet.
type DoctorFilter func(doctor records.Doctor, date string) bool

// AllDoctors is the default DoctorFilter: every doctor is bookable every day.
func AllDoctors(records.Doctor, string) bool { return true }
