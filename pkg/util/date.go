package util

import "time"

// DayLayout is the date format used for bar dates in API payloads.
const DayLayout = "2006-01-02"

// FormatDay formats t as YYYY-MM-DD in its own location.
func FormatDay(t time.Time) string {
    return t.Format(DayLayout)
}
