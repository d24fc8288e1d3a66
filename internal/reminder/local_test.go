package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/lovetoday/internal/model"
)

type fixedStreak struct {
	state model.StreakState
}

func (f fixedStreak) Load(ctx context.Context) (model.StreakState, error) {
	return f.state, nil
}

func newLocal(t *testing.T, s model.StreakState, now time.Time) (*LocalTransport, *StoreNotifier) {
	t.Helper()
	n := NewStoreNotifier(setupKV(t))
	lt := NewLocalTransport(n, fixedStreak{state: s}, time.UTC)
	lt.now = func() time.Time { return now }
	return lt, n
}

func TestLocalSplitsWeekdayAndWeekend(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	lt, n := newLocal(t, model.StreakState{LastDoneISO: "2025-06-10", Current: 3, Longest: 3}, now)
	ctx := context.Background()

	plan := Resolve(model.Preferences{RemindAt: "08:00", RemindWeekday: "07:00", RemindWeekend: "09:30"})
	require.NoError(t, lt.Apply(ctx, plan))

	regs, err := n.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 2)

	assert.Equal(t, model.RegistrationWeekly, regs[0].Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, regs[0].Weekdays)
	assert.Equal(t, 7, regs[0].Hour)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, regs[1].Weekdays)
	assert.Equal(t, 9, regs[1].Hour)
	assert.Equal(t, 30, regs[1].Minute)

	for _, r := range regs {
		assert.Equal(t, model.CategoryDailyIdea, r.Category)
		assert.NotEmpty(t, r.ID)
	}
}

func TestLocalSingleAlertWhenTimesMatch(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	lt, n := newLocal(t, model.StreakState{LastDoneISO: "2025-06-09", Current: 1, Longest: 1}, now)
	ctx := context.Background()

	require.NoError(t, lt.Apply(ctx, Resolve(model.Preferences{RemindAt: "08:00"})))

	regs, err := n.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Len(t, regs[0].Weekdays, 7)
}

func TestLocalCatchUp(t *testing.T) {
	tests := []struct {
		name    string
		state   model.StreakState
		now     time.Time
		wantAt  *time.Time
		catchUp string
	}{
		{
			name:    "no streak yet, later today",
			now:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			catchUp: "20:00",
			wantAt:  ptr(time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)),
		},
		{
			name:    "lapsed, time passed rolls to tomorrow",
			state:   model.StreakState{LastDoneISO: "2025-06-01", Current: 2, Longest: 5},
			now:     time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC),
			catchUp: "20:00",
			wantAt:  ptr(time.Date(2025, 6, 11, 20, 0, 0, 0, time.UTC)),
		},
		{
			name:    "done yesterday",
			state:   model.StreakState{LastDoneISO: "2025-06-09", Current: 2, Longest: 5},
			now:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			catchUp: "20:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt, n := newLocal(t, tt.state, tt.now)
			ctx := context.Background()
			require.NoError(t, lt.Apply(ctx, Resolve(model.Preferences{RemindAt: "08:00", RemindCatchUp: tt.catchUp})))

			regs, err := n.List(ctx)
			require.NoError(t, err)

			var once []model.ReminderRegistration
			for _, r := range regs {
				if r.Kind == model.RegistrationOnce {
					once = append(once, r)
				}
			}
			if tt.wantAt == nil {
				assert.Empty(t, once)
				return
			}
			require.Len(t, once, 1)
			require.NotNil(t, once[0].FireAt)
			assert.True(t, tt.wantAt.Equal(*once[0].FireAt), "fireAt = %v, want %v", once[0].FireAt, tt.wantAt)
		})
	}
}

func TestLocalReplacesPriorRegistrations(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	lt, n := newLocal(t, model.StreakState{LastDoneISO: "2025-06-10"}, now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, lt.Apply(ctx, Resolve(model.Preferences{RemindAt: "08:00", RemindWeekend: "10:00"})))
	}
	regs, err := n.List(ctx)
	require.NoError(t, err)
	assert.Len(t, regs, 2)
}

func ptr(t time.Time) *time.Time { return &t }

func TestLocalConcurrentApplyLeavesOneSet(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	lt, n := newLocal(t, model.StreakState{LastDoneISO: "2025-06-10", Current: 1, Longest: 1}, now)
	ctx := context.Background()
	plan := Resolve(model.Preferences{RemindAt: "08:00", RemindWeekday: "07:00", RemindWeekend: "09:30"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, lt.Apply(ctx, plan))
		}()
	}
	wg.Wait()

	regs, err := n.List(ctx)
	require.NoError(t, err)
	assert.Len(t, regs, 2)
}
