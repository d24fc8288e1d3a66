package model

import "time"

// Notification category and quick actions attached to daily reminders.
const (
	CategoryDailyIdea = "daily-idea"

	ActionMarkToday = "mark-today"
	ActionSwapIdea  = "swap-idea"
)

// ValidAction reports whether a is a known notification quick action.
func ValidAction(a string) bool {
	return a == ActionMarkToday || a == ActionSwapIdea
}

// Registration kinds.
const (
	RegistrationWeekly = "weekly"
	RegistrationOnce   = "once"
)

// ReminderRegistration is a local notification the native shell should
// program with the host platform.
type ReminderRegistration struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
	Hour     int            `json:"hour"`
	Minute   int            `json:"minute"`
	FireAt   *time.Time     `json:"fireAt,omitempty"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Category string         `json:"category"`
}
