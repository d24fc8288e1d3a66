package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/streak"
)

// Content is the visible part of a local alert.
type Content struct {
	Title    string
	Body     string
	Category string
}

var (
	dailyContent = Content{
		Title:    "Today’s Love Idea",
		Body:     "Tap to see a simple way to show love today.",
		Category: model.CategoryDailyIdea,
	}
	catchUpContent = Content{
		Title:    "Pick your streak back up",
		Body:     "One small act of love today starts a new streak.",
		Category: model.CategoryDailyIdea,
	}
)

// Category is a notification category and its quick actions.
type Category struct {
	ID      string   `json:"id"`
	Actions []string `json:"actions"`
}

// DailyIdeaCategory carries the mark-today and swap-idea actions.
var DailyIdeaCategory = Category{
	ID:      model.CategoryDailyIdea,
	Actions: []string{model.ActionMarkToday, model.ActionSwapIdea},
}

var (
	weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	weekend  = []time.Weekday{time.Saturday, time.Sunday}
	allWeek  = []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
)

// Notifier programs alerts with the host platform.
type Notifier interface {
	CancelAll(ctx context.Context) error
	ScheduleWeekly(ctx context.Context, days []time.Weekday, at TimeOfDay, c Content) (string, error)
	ScheduleOnce(ctx context.Context, fireAt time.Time, c Content) (string, error)
	RegisterCategories(ctx context.Context, categories []Category) error
}

// StreakSource reads the current streak.
type StreakSource interface {
	Load(ctx context.Context) (model.StreakState, error)
}

// LocalTransport registers recurring alerts with a Notifier.
type LocalTransport struct {
	notifier Notifier
	streaks  StreakSource
	loc      *time.Location
	now      func() time.Time
	// mu serializes the cancel-then-register sequence in Apply.
	mu sync.Mutex
}

func NewLocalTransport(n Notifier, streaks StreakSource, loc *time.Location) *LocalTransport {
	if loc == nil {
		loc = time.Local
	}
	return &LocalTransport{notifier: n, streaks: streaks, loc: loc, now: time.Now}
}

func (t *LocalTransport) Name() string { return "local" }

// Apply replaces every registered alert with the weekday/weekend pair and,
// when the streak has lapsed, a one-shot catch-up alert.
func (t *LocalTransport) Apply(ctx context.Context, plan Plan) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.notifier.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel alerts: %w", err)
	}

	if plan.Weekday == plan.Weekend {
		if _, err := t.notifier.ScheduleWeekly(ctx, allWeek, plan.Weekday, dailyContent); err != nil {
			return fmt.Errorf("schedule daily alert: %w", err)
		}
	} else {
		if _, err := t.notifier.ScheduleWeekly(ctx, weekdays, plan.Weekday, dailyContent); err != nil {
			return fmt.Errorf("schedule weekday alert: %w", err)
		}
		if _, err := t.notifier.ScheduleWeekly(ctx, weekend, plan.Weekend, dailyContent); err != nil {
			return fmt.Errorf("schedule weekend alert: %w", err)
		}
	}

	s, err := t.streaks.Load(ctx)
	if err != nil {
		return fmt.Errorf("load streak: %w", err)
	}
	now := t.now().In(t.loc)
	if streak.IsActive(s, now.Format(streak.DateLayout)) {
		return nil
	}

	fireAt := NextOccurrence(now, plan.CatchUp)
	if _, err := t.notifier.ScheduleOnce(ctx, fireAt, catchUpContent); err != nil {
		return fmt.Errorf("schedule catch-up alert: %w", err)
	}
	return nil
}

// NextOccurrence returns today at tod, or tomorrow if that time has passed.
func NextOccurrence(now time.Time, tod TimeOfDay) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = time.Date(now.Year(), now.Month(), now.Day()+1, tod.Hour, tod.Minute, 0, 0, now.Location())
	}
	return at
}
