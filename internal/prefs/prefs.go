// Package prefs persists the user's preferences and upgrades older stored
// shapes when they are read.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/store"
)

var (
	ErrInvalidReminderTime = errors.New("invalid reminder time, use HH:mm (24h)")
	ErrInvalidPreferences  = errors.New("invalid preferences")
)

// DefaultRemindAt is used when no reminder time is configured.
const DefaultRemindAt = "08:00"

var reminderTimeRE = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// ParseReminderTime splits an HH:mm string into hour and minute.
func ParseReminderTime(s string) (hour, minute int, err error) {
	m := reminderTimeRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%q: %w", s, ErrInvalidReminderTime)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// Defaults returns the preferences used before anything is saved.
func Defaults() model.Preferences {
	return model.Preferences{
		Profiles: model.Profiles{
			Spouse: &model.Spouse{Name: "Spouse"},
			Kids:   []model.Kid{{ID: "k1", Name: "Kiddo"}},
		},
		LoveLanguages: defaultLoveLanguages(),
		TimeBudget:    model.Tag15Min,
		MoneyBudget:   model.TagBudgetLow,
		RemindAt:      DefaultRemindAt,
		RemindWeekday: DefaultRemindAt,
		RemindWeekend: DefaultRemindAt,
		RemindCatchUp: DefaultRemindAt,
		LastShownIDs:  []string{},
	}
}

func defaultLoveLanguages() []model.LoveLanguage {
	return []model.LoveLanguage{model.TagTime, model.TagWords}
}

// Store reads and writes preferences under a single key.
type Store struct {
	kv store.KV
	// mu serializes read-modify-write sequences.
	mu sync.Mutex
}

func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored preferences, migrated in memory, or the defaults
// when nothing has been saved.
func (s *Store) Load(ctx context.Context) (model.Preferences, error) {
	raw, err := s.kv.Get(ctx, store.KeyPrefs)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("load prefs: %w", err)
	}
	if raw == nil {
		return Defaults(), nil
	}
	p, err := Migrate(raw)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("load prefs: %w", err)
	}
	return p, nil
}

// Save validates p and replaces the stored record.
func (s *Store) Save(ctx context.Context, p model.Preferences) error {
	if err := Validate(&p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, p)
}

// RecordShown puts ideaID at the front of the history.
func (s *Store) RecordShown(ctx context.Context, ideaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Load(ctx)
	if err != nil {
		return err
	}
	p.LastShownIDs = pushHistory(p.LastShownIDs, ideaID)
	return s.write(ctx, p)
}

func (s *Store) write(ctx context.Context, p model.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyPrefs, data); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}

func pushHistory(history []string, id string) []string {
	out := make([]string, 0, model.HistoryLimit)
	out = append(out, id)
	for _, h := range history {
		if len(out) == model.HistoryLimit {
			break
		}
		out = append(out, h)
	}
	return out
}

// Validate checks reminder times and tags, and normalizes p in place: an
// empty remindAt becomes the default, repeated love languages are dropped and
// the history is capped.
func Validate(p *model.Preferences) error {
	if p.RemindAt == "" {
		p.RemindAt = DefaultRemindAt
	}
	for _, t := range []string{p.RemindAt, p.RemindWeekday, p.RemindWeekend, p.RemindCatchUp} {
		if t == "" {
			continue
		}
		if _, _, err := ParseReminderTime(t); err != nil {
			return err
		}
	}

	langs := [][]model.LoveLanguage{p.LoveLanguages, p.SpouseLoveLanguages}
	for _, l := range p.KidsLoveLanguages {
		langs = append(langs, l)
	}
	for _, group := range langs {
		for _, l := range group {
			if !l.IsLoveLanguage() {
				return fmt.Errorf("%w: unknown love language %q", ErrInvalidPreferences, l)
			}
		}
	}
	p.LoveLanguages = uniqueLanguages(p.LoveLanguages)
	p.SpouseLoveLanguages = uniqueLanguages(p.SpouseLoveLanguages)
	for id, l := range p.KidsLoveLanguages {
		p.KidsLoveLanguages[id] = uniqueLanguages(l)
	}

	if p.TimeBudget != "" && !p.TimeBudget.IsTimeBudget() {
		return fmt.Errorf("%w: unknown time budget %q", ErrInvalidPreferences, p.TimeBudget)
	}
	if p.MoneyBudget != "" && !p.MoneyBudget.IsMoneyBudget() {
		return fmt.Errorf("%w: unknown money budget %q", ErrInvalidPreferences, p.MoneyBudget)
	}

	seen := make(map[string]bool, len(p.Profiles.Kids))
	for _, k := range p.Profiles.Kids {
		if k.ID == "" || seen[k.ID] {
			return fmt.Errorf("%w: kid ids must be unique and non-empty", ErrInvalidPreferences)
		}
		seen[k.ID] = true
	}

	if len(p.LastShownIDs) > model.HistoryLimit {
		p.LastShownIDs = p.LastShownIDs[:model.HistoryLimit]
	}
	return nil
}

// uniqueLanguages drops repeats, keeping first occurrences in order.
func uniqueLanguages(langs []model.LoveLanguage) []model.LoveLanguage {
	if len(langs) < 2 {
		return langs
	}
	seen := make(map[model.LoveLanguage]bool, len(langs))
	out := langs[:0:0]
	for _, l := range langs {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
