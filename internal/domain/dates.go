package domain

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

// NightsBetween counts the nights from check-in to check-out.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOf(checkOut).Sub(DateOf(checkIn)).Hours() / 24)
}

// ValidateStayDates requires a check-out strictly after check-in.
func ValidateStayDates(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() {
		return &ValidationError{Field: "check_in_date", Reason: "is required"}
	}
	if checkOut.IsZero() {
		return &ValidationError{Field: "check_out_date", Reason: "is required"}
	}
	if NightsBetween(checkIn, checkOut) < 1 {
		return &ValidationError{Field: "check_out_date", Reason: "must be after check-in date"}
	}
	return nil
}
