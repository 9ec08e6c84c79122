package domain

import "time"

// HistoryDateLayout is the layout of HistoryEvent.Date: local time with
// microseconds, fixed width so that string order equals time order.
const HistoryDateLayout = "2006-01-02T15:04:05.000000"

// DateLayout is the layout of processing and publication dates.
const DateLayout = "2006-01-02"

// HistoryEvent is an immutable audit entry for one mutation.
type HistoryEvent struct {
	Code       *string
	Collection *string
	Event      Event
	Date       string
}

// FormatHistoryDate renders t in HistoryDateLayout.
func FormatHistoryDate(t time.Time) string {
	return t.Format(HistoryDateLayout)
}
