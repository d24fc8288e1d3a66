package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Event types pushed to open app sessions.
const (
	EventIdeaDone      = "idea_done"
	EventPrefsSaved    = "prefs_saved"
	EventPendingAction = "pending_action"
	EventDispatched    = "dispatch_complete"
)

// Event is a live update sent to every connected session.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Data: data}
}

// Hub fans events out to connected sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	logger   *slog.Logger
	dropped  atomic.Int64
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes s and closes its outbox. Safe to call twice.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.outbox)
	}
	h.mu.Unlock()
}

// Publish sends e to every session. Sessions with a full outbox miss it.
func (h *Hub) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event", "type", e.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions {
		select {
		case s.outbox <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dropped returns how many deliveries were skipped because an outbox was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
