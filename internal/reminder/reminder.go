// Package reminder turns preferences into reminder deliveries. A Scheduler
// hands a resolved Plan to exactly one Transport chosen at startup.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/prefs"
)

// ErrUnknownAction is returned for a notification action outside the
// daily-idea category.
var ErrUnknownAction = errors.New("unknown notification action")

// TimeOfDay is an hour and minute in the device time zone.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Plan is the set of reminder times derived from preferences.
type Plan struct {
	Default TimeOfDay
	Weekday TimeOfDay
	Weekend TimeOfDay
	CatchUp TimeOfDay
}

// Resolve derives a plan. Each specific time falls back to remindAt and
// then to 08:00 when missing or malformed.
func Resolve(p model.Preferences) Plan {
	def := parseOr(p.RemindAt, TimeOfDay{Hour: 8})
	return Plan{
		Default: def,
		Weekday: parseOr(p.RemindWeekday, def),
		Weekend: parseOr(p.RemindWeekend, def),
		CatchUp: parseOr(p.RemindCatchUp, def),
	}
}

func parseOr(s string, fallback TimeOfDay) TimeOfDay {
	if s == "" {
		return fallback
	}
	h, m, err := prefs.ParseReminderTime(s)
	if err != nil {
		return fallback
	}
	return TimeOfDay{Hour: h, Minute: m}
}

// Transport applies a plan through one delivery mechanism.
type Transport interface {
	Name() string
	Apply(ctx context.Context, plan Plan) error
}

// Scheduler applies preferences through its transport.
type Scheduler struct {
	transport Transport
	logger    *slog.Logger
}

func NewScheduler(t Transport, logger *slog.Logger) *Scheduler {
	return &Scheduler{transport: t, logger: logger}
}

// Transport returns the configured transport.
func (s *Scheduler) Transport() Transport {
	return s.transport
}

// Schedule resolves p and applies it. Failures are logged, not returned.
func (s *Scheduler) Schedule(ctx context.Context, p model.Preferences) {
	plan := Resolve(p)
	if err := s.transport.Apply(ctx, plan); err != nil {
		s.logger.Warn("schedule reminders", "transport", s.transport.Name(), "error", err)
		return
	}
	s.logger.Info("reminders scheduled",
		"transport", s.transport.Name(),
		"weekday", plan.Weekday.String(),
		"weekend", plan.Weekend.String(),
	)
}
