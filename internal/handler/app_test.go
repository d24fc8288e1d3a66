package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/lovetoday/internal/catalog"
	"github.com/dukerupert/lovetoday/internal/database"
	"github.com/dukerupert/lovetoday/internal/idea"
	"github.com/dukerupert/lovetoday/internal/logging"
	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/prefs"
	"github.com/dukerupert/lovetoday/internal/reminder"
	"github.com/dukerupert/lovetoday/internal/store"
	"github.com/dukerupert/lovetoday/internal/streak"
	"github.com/dukerupert/lovetoday/internal/websocket"
)

type appFixture struct {
	h        *AppHandler
	kv       store.KV
	prefs    *prefs.Store
	notifier *reminder.StoreNotifier
	pending  *reminder.PendingActions
	devices  *reminder.DeviceStore
}

func setupApp(t *testing.T) *appFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv := store.NewSQLiteKV(db)
	logger := logging.Discard()
	clock := func() time.Time { return time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC) }

	ps := prefs.NewStore(kv)
	tracker := streak.NewTracker(kv, time.UTC, streak.WithClock(clock))
	notifier := reminder.NewStoreNotifier(kv)
	pending := reminder.NewPendingActions(kv)
	devices := reminder.NewDeviceStore(kv)
	lifecycle := reminder.NewLifecycle(notifier, logger)
	lifecycle.OnResponse(pending.Listener())

	h := NewAppHandler(AppDeps{
		Prefs:         ps,
		Streaks:       tracker,
		Selector:      idea.NewSelector(catalog.Default()),
		Scheduler:     reminder.NewScheduler(reminder.NewLocalTransport(notifier, tracker, time.UTC), logger),
		Lifecycle:     lifecycle,
		Pending:       pending,
		Devices:       devices,
		Registrations: notifier,
		Hub:           websocket.NewHub(logger),
	}, logger)

	return &appFixture{h: h, kv: kv, prefs: ps, notifier: notifier, pending: pending, devices: devices}
}

func do(t *testing.T, fn http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestGetIdea(t *testing.T) {
	f := setupApp(t)

	w := do(t, f.h.GetIdea, http.MethodGet, "/api/idea?recipient=spouse", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ideaResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, model.RecipientSpouse, resp.Idea.Recipient)
	assert.NotEmpty(t, resp.Text)
	assert.NotContains(t, resp.Text, "{{")

	// Showing an idea is not the same as completing it.
	p, err := f.prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.LastShownIDs)
}

func TestGetIdeaRejectsUnknownRecipient(t *testing.T) {
	f := setupApp(t)
	w := do(t, f.h.GetIdea, http.MethodGet, "/api/idea?recipient=boss", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkDoneRecordsHistoryAndStreak(t *testing.T) {
	f := setupApp(t)

	w := do(t, f.h.MarkDone, http.MethodPost, "/api/idea/done", `{"ideaId":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Streak model.StreakState `json:"streak"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, model.StreakState{LastDoneISO: "2025-03-04", Current: 1, Longest: 1}, resp.Streak)

	p, err := f.prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, p.LastShownIDs)

	// Same day again leaves the streak alone.
	w = do(t, f.h.MarkDone, http.MethodPost, "/api/idea/done", `{"ideaId":"s2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, f.h.GetStreak, http.MethodGet, "/api/streak", "")
	var s model.StreakState
	decodeBody(t, w, &s)
	assert.Equal(t, 1, s.Current)
}

func TestMarkDoneRequiresID(t *testing.T) {
	f := setupApp(t)
	assert.Equal(t, http.StatusBadRequest, do(t, f.h.MarkDone, http.MethodPost, "/api/idea/done", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, f.h.MarkDone, http.MethodPost, "/api/idea/done", `not json`).Code)
}

func TestGetPrefsDefaults(t *testing.T) {
	f := setupApp(t)
	w := do(t, f.h.GetPrefs, http.MethodGet, "/api/prefs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var p model.Preferences
	decodeBody(t, w, &p)
	assert.Equal(t, prefs.Defaults(), p)
}

func TestPutPrefsSchedulesReminders(t *testing.T) {
	f := setupApp(t)
	p := prefs.Defaults()
	p.RemindWeekday = "07:15"
	p.RemindWeekend = "09:30"
	body, err := json.Marshal(p)
	require.NoError(t, err)

	w := do(t, f.h.PutPrefs, http.MethodPut, "/api/prefs", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	regs, err := f.notifier.List(context.Background())
	require.NoError(t, err)
	// Weekday and weekend alerts plus a catch-up, since nothing is done yet.
	require.Len(t, regs, 3)
	assert.Equal(t, 7, regs[0].Hour)
	assert.Equal(t, 15, regs[0].Minute)
	assert.Equal(t, 9, regs[1].Hour)

	w = do(t, f.h.ListReminders, http.MethodGet, "/api/reminders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Transport string                       `json:"transport"`
		Reminders []model.ReminderRegistration `json:"reminders"`
	}
	decodeBody(t, w, &listed)
	assert.Equal(t, "local", listed.Transport)
	assert.Len(t, listed.Reminders, 3)
}

func TestPutPrefsRejectsBadTime(t *testing.T) {
	f := setupApp(t)
	p := prefs.Defaults()
	p.RemindCatchUp = "25:00"
	body, err := json.Marshal(p)
	require.NoError(t, err)

	w := do(t, f.h.PutPrefs, http.MethodPut, "/api/prefs", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	raw, err := f.kv.Get(context.Background(), store.KeyPrefs)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRegisterDevice(t *testing.T) {
	f := setupApp(t)

	w := do(t, f.h.RegisterDevice, http.MethodPost, "/api/device/push",
		`{"subscription":{"endpoint":"https://push.example/x"},"tz":"Europe/Paris"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dev, err := f.devices.Device(context.Background())
	require.NoError(t, err)
	require.NotNil(t, dev)
	assert.Equal(t, "Europe/Paris", dev.Timezone)
}

func TestRegisterDeviceValidates(t *testing.T) {
	f := setupApp(t)
	tests := map[string]string{
		"no subscription": `{"tz":"UTC"}`,
		"no endpoint":     `{"subscription":{},"tz":"UTC"}`,
		"no tz":           `{"subscription":{"endpoint":"https://push.example/x"}}`,
		"bad tz":          `{"subscription":{"endpoint":"https://push.example/x"},"tz":"Mars/Base"}`,
		"server local tz": `{"subscription":{"endpoint":"https://push.example/x"},"tz":"Local"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(t, f.h.RegisterDevice, http.MethodPost, "/api/device/push", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestActionsRoundTrip(t *testing.T) {
	f := setupApp(t)

	w := do(t, f.h.RecordAction, http.MethodPost, "/api/actions", `{"action":"swap-idea"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, f.h.ConsumeAction, http.MethodPost, "/api/actions/consume", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, model.ActionSwapIdea, resp["action"])

	// Consumed once.
	w = do(t, f.h.ConsumeAction, http.MethodPost, "/api/actions/consume", "")
	decodeBody(t, w, &resp)
	assert.Empty(t, resp["action"])
}

func TestRecordActionRejectsUnknown(t *testing.T) {
	f := setupApp(t)
	w := do(t, f.h.RecordAction, http.MethodPost, "/api/actions", `{"action":"snooze"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
