package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/lovetoday/internal/idea"
	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/prefs"
	"github.com/dukerupert/lovetoday/internal/reminder"
	"github.com/dukerupert/lovetoday/internal/streak"
	"github.com/dukerupert/lovetoday/internal/websocket"
)

// AppHandler serves the single-user app API.
type AppHandler struct {
	prefs         *prefs.Store
	streaks       *streak.Tracker
	selector      *idea.Selector
	scheduler     *reminder.Scheduler
	lifecycle     *reminder.Lifecycle
	pending       *reminder.PendingActions
	devices       *reminder.DeviceStore
	registrations *reminder.StoreNotifier
	hub           *websocket.Hub
	logger        *slog.Logger
}

// AppDeps groups the AppHandler collaborators.
type AppDeps struct {
	Prefs         *prefs.Store
	Streaks       *streak.Tracker
	Selector      *idea.Selector
	Scheduler     *reminder.Scheduler
	Lifecycle     *reminder.Lifecycle
	Pending       *reminder.PendingActions
	Devices       *reminder.DeviceStore
	Registrations *reminder.StoreNotifier
	Hub           *websocket.Hub
}

func NewAppHandler(d AppDeps, logger *slog.Logger) *AppHandler {
	return &AppHandler{
		prefs:         d.Prefs,
		streaks:       d.Streaks,
		selector:      d.Selector,
		scheduler:     d.Scheduler,
		lifecycle:     d.Lifecycle,
		pending:       d.Pending,
		devices:       d.Devices,
		registrations: d.Registrations,
		hub:           d.Hub,
		logger:        logger,
	}
}

func (h *AppHandler) publish(typ string, data any) {
	if h.hub != nil {
		h.hub.Publish(websocket.NewEvent(typ, data))
	}
}

type ideaResponse struct {
	Idea model.Idea `json:"idea"`
	Text string     `json:"text"`
}

// GetIdea handles GET /api/idea?recipient=&kid=
func (h *AppHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	recipient := model.Recipient(r.URL.Query().Get("recipient"))
	if recipient == "" {
		recipient = model.RecipientSpouse
	}
	if !recipient.Valid() {
		writeError(w, http.StatusBadRequest, "recipient must be spouse, kid, or family")
		return
	}
	kidID := r.URL.Query().Get("kid")

	p, err := h.prefs.Load(r.Context())
	if err != nil {
		h.logger.Error("load prefs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	picked, err := h.selector.Select(p, recipient, kidID)
	if errors.Is(err, idea.ErrNoIdeas) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("select idea", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to select idea")
		return
	}

	writeJSON(w, http.StatusOK, ideaResponse{Idea: picked, Text: idea.Render(picked, p, kidID)})
}

type doneRequest struct {
	IdeaID string `json:"ideaId"`
}

// MarkDone handles POST /api/idea/done
func (h *AppHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	var req doneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IdeaID == "" {
		writeError(w, http.StatusBadRequest, "ideaId is required")
		return
	}

	if err := h.prefs.RecordShown(r.Context(), req.IdeaID); err != nil {
		h.logger.Error("record shown", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record idea")
		return
	}
	s, err := h.streaks.Tick(r.Context())
	if err != nil {
		h.logger.Error("tick streak", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update streak")
		return
	}

	h.publish(websocket.EventIdeaDone, map[string]any{"ideaId": req.IdeaID, "streak": s})
	writeJSON(w, http.StatusOK, map[string]any{"streak": s})
}

// GetStreak handles GET /api/streak
func (h *AppHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	s, err := h.streaks.Load(r.Context())
	if err != nil {
		h.logger.Error("load streak", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load streak")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetPrefs handles GET /api/prefs
func (h *AppHandler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := h.prefs.Load(r.Context())
	if err != nil {
		h.logger.Error("load prefs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutPrefs handles PUT /api/prefs. A successful save reschedules reminders.
func (h *AppHandler) PutPrefs(w http.ResponseWriter, r *http.Request) {
	var p model.Preferences
	if !decodeJSON(w, r, &p) {
		return
	}

	err := h.prefs.Save(r.Context(), p)
	if errors.Is(err, prefs.ErrInvalidReminderTime) || errors.Is(err, prefs.ErrInvalidPreferences) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("save prefs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	saved, err := h.prefs.Load(r.Context())
	if err != nil {
		h.logger.Error("reload prefs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	h.scheduler.Schedule(r.Context(), saved)
	h.publish(websocket.EventPrefsSaved, nil)
	writeJSON(w, http.StatusOK, saved)
}

type deviceRequest struct {
	Subscription json.RawMessage `json:"subscription"`
	TZ           string          `json:"tz"`
}

// RegisterDevice handles POST /api/device/push. The device is subscribed
// for delivery right away when the push transport is active.
func (h *AppHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	endpoint, err := reminder.Endpoint(req.Subscription)
	if err != nil || endpoint == "" || req.TZ == "" {
		writeError(w, http.StatusBadRequest, "subscription & tz required")
		return
	}
	if _, err := time.LoadLocation(req.TZ); err != nil || req.TZ == "Local" {
		writeError(w, http.StatusBadRequest, "unknown time zone")
		return
	}

	if err := h.devices.SetDevice(r.Context(), model.PushDevice{Subscription: req.Subscription, Timezone: req.TZ}); err != nil {
		h.logger.Error("save device", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save device")
		return
	}

	p, err := h.prefs.Load(r.Context())
	if err != nil {
		h.logger.Error("load prefs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	h.scheduler.Schedule(r.Context(), p)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListReminders handles GET /api/reminders
func (h *AppHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.List(r.Context())
	if err != nil {
		h.logger.Error("list reminders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	cats, err := h.registrations.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if cats == nil {
		cats = []reminder.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transport":  h.scheduler.Transport().Name(),
		"reminders":  regs,
		"categories": cats,
	})
}

type actionRequest struct {
	Action string `json:"action"`
}

// RecordAction handles POST /api/actions: a notification quick action.
func (h *AppHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.lifecycle.HandleResponse(r.Context(), req.Action)
	if errors.Is(err, reminder.ErrUnknownAction) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("handle notification response", "action", req.Action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record action")
		return
	}
	h.publish(websocket.EventPendingAction, map[string]string{"action": req.Action})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ConsumeAction handles POST /api/actions/consume
func (h *AppHandler) ConsumeAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.pending.Consume(r.Context())
	if err != nil {
		h.logger.Error("consume action", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read action")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"action": action})
}
