package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/lovetoday/internal/push"
	"github.com/dukerupert/lovetoday/internal/reminder"
	"github.com/dukerupert/lovetoday/internal/websocket"
)

// Default delivery time when a subscribe request omits it.
const (
	defaultHour   = 8
	defaultMinute = 0
)

type PushHandler struct {
	directory  *push.Directory
	dispatcher *push.Dispatcher
	publicKey  string
	hub        *websocket.Hub
	logger     *slog.Logger
	now        func() time.Time
}

func NewPushHandler(dir *push.Directory, d *push.Dispatcher, publicKey string, hub *websocket.Hub, logger *slog.Logger) *PushHandler {
	return &PushHandler{directory: dir, dispatcher: d, publicKey: publicKey, hub: hub, logger: logger, now: time.Now}
}

type subscribeRequest struct {
	Subscription json.RawMessage `json:"subscription"`
	TZ           string          `json:"tz"`
	Hour         *int            `json:"hour"`
	Minute       *int            `json:"minute"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	endpoint, err := reminder.Endpoint(req.Subscription)
	if err != nil || endpoint == "" || req.TZ == "" {
		writeError(w, http.StatusBadRequest, "subscription & tz required")
		return
	}

	hour, minute := defaultHour, defaultMinute
	if req.Hour != nil {
		hour = *req.Hour
	}
	if req.Minute != nil {
		minute = *req.Minute
	}

	id, err := h.directory.Subscribe(r.Context(), endpoint, req.Subscription, req.TZ, hour, minute)
	if errors.Is(err, push.ErrInvalidSubscription) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("subscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// PublicKey handles GET /api/push/public-key
func (h *PushHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.publicKey})
}

type sendResponse struct {
	OK bool `json:"ok"`
	push.Result
}

// Send handles GET /api/push/send: one dispatch run at the current time.
func (h *PushHandler) Send(w http.ResponseWriter, r *http.Request) {
	res := h.dispatcher.RunOnce(r.Context(), h.now())
	if h.hub != nil {
		h.hub.Publish(websocket.NewEvent(websocket.EventDispatched, res))
	}
	writeJSON(w, http.StatusOK, sendResponse{OK: true, Result: res})
}
