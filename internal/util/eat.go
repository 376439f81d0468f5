package util //nolint:revive // package name util hosts shared time helpers used across handlers and services

import "time"

// All timestamps in the application are displayed and compared in East African
// Time. Hospitals run on wall-clock schedules; storing UTC and converting at
// the edge keeps the database unambiguous while every human-facing surface
// agrees on one civil timezone.

const eatOffsetSeconds = 3 * 60 * 60

var eatLocation = loadEAT()

func loadEAT() *time.Location {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		// EAT has no daylight saving; a fixed offset is an exact fallback
		// for hosts without tzdata.
		return time.FixedZone("EAT", eatOffsetSeconds)
	}
	return loc
}

// EAT returns the East African Time location.
func EAT() *time.Location {
	return eatLocation
}

// ToEAT converts an instant to East African Time.
func ToEAT(t time.Time) time.Time {
	return t.In(eatLocation)
}

// FormatEAT renders an instant for display, e.g. "02 Jan 2006 15:04 EAT".
func FormatEAT(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return ToEAT(t).Format("02 Jan 2006 15:04 MST")
}

// FormatEATDate renders only the civil date, e.g. "02 Jan 2006".
func FormatEATDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return ToEAT(t).Format("02 Jan 2006")
}

// DayBoundsEAT returns the UTC instants bounding the EAT civil day containing t.
// The end bound is exclusive. Used for "appointments on this date" queries.
func DayBoundsEAT(t time.Time) (start, end time.Time) {
	local := ToEAT(t)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, eatLocation)
	return dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC()
}

// SameEATDay reports whether two instants fall on the same EAT civil day.
func SameEATDay(a, b time.Time) bool {
	la, lb := ToEAT(a), ToEAT(b)
	return la.Year() == lb.Year() && la.YearDay() == lb.YearDay()
}
