package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/store"
)

// ResponseFunc handles a quick action chosen from a notification.
type ResponseFunc func(ctx context.Context, action string) error

// Lifecycle owns one-time notification setup and the single response
// listener.
type Lifecycle struct {
	notifier Notifier
	logger   *slog.Logger

	initMu      sync.Mutex
	initialized bool

	mu       sync.Mutex
	listener ResponseFunc
	gen      uint64
}

func NewLifecycle(n Notifier, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{notifier: n, logger: logger}
}

// EnsureInitialized registers the notification categories once. A failed
// attempt is retried on the next call.
func (l *Lifecycle) EnsureInitialized(ctx context.Context) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.initialized {
		return nil
	}
	if err := l.notifier.RegisterCategories(ctx, []Category{DailyIdeaCategory}); err != nil {
		return fmt.Errorf("register categories: %w", err)
	}
	l.initialized = true
	return nil
}

// OnResponse installs fn as the response listener, replacing any previous
// one. The returned func removes fn if it is still installed.
func (l *Lifecycle) OnResponse(fn ResponseFunc) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listener != nil {
		l.logger.Debug("replacing notification response listener")
	}
	l.gen++
	gen := l.gen
	l.listener = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.gen == gen {
			l.listener = nil
		}
	}
}

// HandleResponse routes action to the current listener. Unknown actions are
// rejected.
func (l *Lifecycle) HandleResponse(ctx context.Context, action string) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	l.mu.Lock()
	fn := l.listener
	l.mu.Unlock()

	if fn == nil {
		l.logger.Warn("notification response dropped, no listener", "action", action)
		return nil
	}
	return fn(ctx, action)
}

// PendingActions holds the last notification action until the app consumes it.
type PendingActions struct {
	kv store.KV
	mu sync.Mutex
}

func NewPendingActions(kv store.KV) *PendingActions {
	return &PendingActions{kv: kv}
}

// Set records action, replacing any unconsumed one.
func (p *PendingActions) Set(ctx context.Context, action string) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	data, _ := json.Marshal(action)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.kv.Set(ctx, store.KeyPendingAction, data); err != nil {
		return fmt.Errorf("save pending action: %w", err)
	}
	return nil
}

// Consume returns the pending action and clears it. It returns "" when
// nothing is pending.
func (p *PendingActions) Consume(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.kv.Get(ctx, store.KeyPendingAction)
	if err != nil {
		return "", fmt.Errorf("load pending action: %w", err)
	}
	if raw == nil {
		return "", nil
	}
	var action string
	if err := json.Unmarshal(raw, &action); err != nil {
		return "", fmt.Errorf("decode pending action: %w", err)
	}
	if err := p.kv.Delete(ctx, store.KeyPendingAction); err != nil {
		return "", fmt.Errorf("clear pending action: %w", err)
	}
	return action, nil
}

// Listener records every response as pending.
func (p *PendingActions) Listener() ResponseFunc {
	return p.Set
}
