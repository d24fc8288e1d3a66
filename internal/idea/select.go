// Package idea picks and renders the idea of the day.
package idea

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dukerupert/lovetoday/internal/catalog"
	"github.com/dukerupert/lovetoday/internal/model"
)

// ErrNoIdeas is returned when the catalog has nothing for a recipient.
var ErrNoIdeas = errors.New("no ideas for recipient")

// Selector chooses ideas from a fixed catalog. It holds no mutable state.
type Selector struct {
	catalog *catalog.Catalog
}

// NewSelector returns a selector over c.
func NewSelector(c *catalog.Catalog) *Selector {
	return &Selector{catalog: c}
}

// Select picks from the built-in catalog.
func Select(prefs model.Preferences, recipient model.Recipient, kidID string) (model.Idea, error) {
	return NewSelector(catalog.Default()).Select(prefs, recipient, kidID)
}

type scored struct {
	idea  model.Idea
	score int
	faith bool
}

// Select returns the best matching idea for recipient. The result depends
// only on its inputs.
func (s *Selector) Select(prefs model.Preferences, recipient model.Recipient, kidID string) (model.Idea, error) {
	pool := s.catalog.ForRecipient(recipient)
	if len(pool) == 0 {
		return model.Idea{}, fmt.Errorf("select %q: %w", recipient, ErrNoIdeas)
	}

	want := desiredTags(prefs, recipient, kidID)

	candidates := excludeRecent(pool, prefs.LastShownIDs)
	if len(candidates) == 0 {
		candidates = pool
	}

	ranked := make([]scored, len(candidates))
	for i, idea := range candidates {
		ranked[i] = scored{
			idea:  idea,
			score: overlap(want, idea),
			faith: prefs.FaithMode && idea.Faith != nil,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].faith && !ranked[j].faith
	})

	return ranked[0].idea, nil
}

// desiredTags is the set of the time budget, the money budget and the
// applicable love languages.
func desiredTags(prefs model.Preferences, recipient model.Recipient, kidID string) map[model.Tag]bool {
	langs := prefs.LoveLanguages
	switch recipient {
	case model.RecipientSpouse:
		if len(prefs.SpouseLoveLanguages) > 0 {
			langs = prefs.SpouseLoveLanguages
		}
	case model.RecipientKid:
		if kidID != "" {
			if override := prefs.KidsLoveLanguages[kidID]; len(override) > 0 {
				langs = override
			}
		}
	}

	want := make(map[model.Tag]bool, len(langs)+2)
	want[prefs.TimeBudget] = true
	want[prefs.MoneyBudget] = true
	for _, l := range langs {
		want[l] = true
	}
	return want
}

// overlap counts the idea's tags that are in want.
func overlap(want map[model.Tag]bool, idea model.Idea) int {
	n := 0
	for _, t := range idea.Tags {
		if want[t] {
			n++
		}
	}
	return n
}

func excludeRecent(pool []model.Idea, recent []string) []model.Idea {
	if len(recent) == 0 {
		return pool
	}
	seen := make(map[string]bool, len(recent))
	for _, id := range recent {
		seen[id] = true
	}
	out := make([]model.Idea, 0, len(pool))
	for _, idea := range pool {
		if !seen[idea.ID] {
			out = append(out, idea)
		}
	}
	return out
}
