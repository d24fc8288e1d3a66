// Package streak counts consecutive calendar days with a completed idea.
package streak

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/store"
)

// DateLayout is the stored calendar date format.
const DateLayout = "2006-01-02"

// Tracker reads and advances the streak in the device time zone.
type Tracker struct {
	kv  store.KV
	loc *time.Location
	now func() time.Time
	mu  sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(kv store.KV, loc *time.Location, opts ...Option) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	t := &Tracker{kv: kv, loc: loc, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Today returns the current local calendar date.
func (t *Tracker) Today() string {
	return t.now().In(t.loc).Format(DateLayout)
}

// Load returns the stored state, or a zero state before the first completion.
func (t *Tracker) Load(ctx context.Context) (model.StreakState, error) {
	raw, err := t.kv.Get(ctx, store.KeyStreak)
	if err != nil {
		return model.StreakState{}, fmt.Errorf("load streak: %w", err)
	}
	if raw == nil {
		return model.StreakState{}, nil
	}
	var s model.StreakState
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.StreakState{}, fmt.Errorf("decode streak: %w", err)
	}
	return s, nil
}

// Tick records a completion today. A second call on the same date is a no-op.
func (t *Tracker) Tick(ctx context.Context) (model.StreakState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.Load(ctx)
	if err != nil {
		return model.StreakState{}, err
	}

	today := t.Today()
	next := Advance(s, today)
	if next == s {
		return s, nil
	}
	if err := t.Save(ctx, next); err != nil {
		return model.StreakState{}, err
	}
	return next, nil
}

// Save replaces the stored state.
func (t *Tracker) Save(ctx context.Context, s model.StreakState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode streak: %w", err)
	}
	if err := t.kv.Set(ctx, store.KeyStreak, data); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// Advance applies a completion on date today to s.
func Advance(s model.StreakState, today string) model.StreakState {
	if s.LastDoneISO == today {
		return s
	}
	current := 1
	if s.LastDoneISO != "" && s.LastDoneISO == PrevDate(today) {
		current = s.Current + 1
	}
	longest := s.Longest
	if current > longest {
		longest = current
	}
	return model.StreakState{LastDoneISO: today, Current: current, Longest: longest}
}

// PrevDate returns the calendar day before iso. It returns "" if iso does
// not parse.
func PrevDate(iso string) string {
	d, err := time.Parse(DateLayout, iso)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(DateLayout)
}

// IsActive reports whether the streak was extended today or yesterday.
func IsActive(s model.StreakState, today string) bool {
	return s.LastDoneISO != "" && (s.LastDoneISO == today || s.LastDoneISO == PrevDate(today))
}
