package schema

import (
	"strconv"
	"time"
)

// Date layouts used when rendering panel rows.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// MonthStart truncates t to the first instant of its calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts a first-of-month date by n calendar months.
func AddMonths(month time.Time, n int) time.Time {
	return time.Date(month.Year(), month.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// GroupOf returns the panel group label for a treatment flag.
func GroupOf(treatment int) string {
	if treatment == 1 {
		return TreatedGroup
	}
	return ControlGroup
}

// AppIDKey renders an app id as a map key for JSON documents.
func AppIDKey(appID int64) string {
	return strconv.FormatInt(appID, 10)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
