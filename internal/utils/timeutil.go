package utils

import (
	"time"
)

// ClinicTZ is the clinic's timezone; all expiry math and display formatting
// is relative to it.
var ClinicTZ = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata missing on the host; fall back to a fixed PST offset
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

// Now returns the current clinic-local time
func Now() time.Time {
	return time.Now().In(ClinicTZ)
}

// FormatAppointmentTime formats an appointment start time for display in
// clinic time, e.g. "Mon, Oct 02, 10:00 AM".
func FormatAppointmentTime(t time.Time) string {
	return t.In(ClinicTZ).Format("Mon, Jan 02, 03:04 PM")
}

// IsWithin24Hours reports whether start is no more than 24 hours after now
func IsWithin24Hours(start, now time.Time) bool {
	return start.Sub(now) <= 24*time.Hour
}
