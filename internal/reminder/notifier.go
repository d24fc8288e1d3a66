package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/store"
)

// StoreNotifier keeps registrations in the key-value store. A native shell
// fetches them and mirrors them into the platform scheduler.
type StoreNotifier struct {
	kv store.KV
	mu sync.Mutex
}

func NewStoreNotifier(kv store.KV) *StoreNotifier {
	return &StoreNotifier{kv: kv}
}

// List returns the current registrations.
func (n *StoreNotifier) List(ctx context.Context) ([]model.ReminderRegistration, error) {
	raw, err := n.kv.Get(ctx, store.KeyReminders)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	regs := []model.ReminderRegistration{}
	if raw == nil {
		return regs, nil
	}
	if err := json.Unmarshal(raw, &regs); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	return regs, nil
}

func (n *StoreNotifier) CancelAll(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.kv.Delete(ctx, store.KeyReminders); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}
	return nil
}

func (n *StoreNotifier) ScheduleWeekly(ctx context.Context, days []time.Weekday, at TimeOfDay, c Content) (string, error) {
	return n.add(ctx, model.ReminderRegistration{
		Kind:     model.RegistrationWeekly,
		Weekdays: days,
		Hour:     at.Hour,
		Minute:   at.Minute,
		Title:    c.Title,
		Body:     c.Body,
		Category: c.Category,
	})
}

func (n *StoreNotifier) ScheduleOnce(ctx context.Context, fireAt time.Time, c Content) (string, error) {
	return n.add(ctx, model.ReminderRegistration{
		Kind:     model.RegistrationOnce,
		Hour:     fireAt.Hour(),
		Minute:   fireAt.Minute(),
		FireAt:   &fireAt,
		Title:    c.Title,
		Body:     c.Body,
		Category: c.Category,
	})
}

// RegisterCategories stores the category set for the shell to install.
func (n *StoreNotifier) RegisterCategories(ctx context.Context, categories []Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := n.kv.Set(ctx, store.KeyCategoriesInit, data); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

// Categories returns the registered categories, if any.
func (n *StoreNotifier) Categories(ctx context.Context) ([]Category, error) {
	raw, err := n.kv.Get(ctx, store.KeyCategoriesInit)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var out []Category
	if raw == nil {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func (n *StoreNotifier) add(ctx context.Context, reg model.ReminderRegistration) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	regs, err := n.List(ctx)
	if err != nil {
		return "", err
	}
	reg.ID = uuid.NewString()
	regs = append(regs, reg)

	data, err := json.Marshal(regs)
	if err != nil {
		return "", fmt.Errorf("encode reminders: %w", err)
	}
	if err := n.kv.Set(ctx, store.KeyReminders, data); err != nil {
		return "", fmt.Errorf("save reminders: %w", err)
	}
	return reg.ID, nil
}
