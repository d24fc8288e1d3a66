package prefs

import (
	"encoding/json"
	"fmt"

	"github.com/dukerupert/lovetoday/internal/model"
)

// legacyShape picks out the fields that older records stored differently.
type legacyShape struct {
	Profiles json.RawMessage `json:"profiles"`
	Names    *struct {
		Spouse string          `json:"spouse"`
		Kids   json.RawMessage `json:"kids"`
	} `json:"names"`
}

// Migrate decodes a stored record of any known shape into current
// preferences. Missing fields get their defaults.
func Migrate(raw []byte) (model.Preferences, error) {
	var p model.Preferences
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Preferences{}, fmt.Errorf("decode prefs: %w", err)
	}
	var legacy legacyShape
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return model.Preferences{}, fmt.Errorf("decode legacy prefs: %w", err)
	}

	if len(legacy.Profiles) == 0 || string(legacy.Profiles) == "null" {
		p.Profiles = legacyProfiles(legacy)
	}
	if p.Profiles.Kids == nil {
		p.Profiles.Kids = []model.Kid{}
	}

	if p.LoveLanguages == nil {
		p.LoveLanguages = defaultLoveLanguages()
	}
	if p.TimeBudget == "" {
		p.TimeBudget = model.Tag15Min
	}
	if p.MoneyBudget == "" {
		p.MoneyBudget = model.TagBudgetLow
	}

	if p.RemindAt == "" {
		p.RemindAt = DefaultRemindAt
	}
	if p.RemindWeekday == "" {
		p.RemindWeekday = p.RemindAt
	}
	if p.RemindWeekend == "" {
		p.RemindWeekend = p.RemindAt
	}
	if p.RemindCatchUp == "" {
		p.RemindCatchUp = p.RemindAt
	}

	if p.LastShownIDs == nil {
		p.LastShownIDs = []string{}
	}
	return p, nil
}

// legacyProfiles turns flat names.spouse / names.kids into profiles. Kid ids
// are assigned in order as k1, k2, and so on.
func legacyProfiles(legacy legacyShape) model.Profiles {
	spouse := "Spouse"
	kids := []string{"Kiddo"}
	if legacy.Names != nil {
		if legacy.Names.Spouse != "" {
			spouse = legacy.Names.Spouse
		}
		var names []string
		if err := json.Unmarshal(legacy.Names.Kids, &names); err == nil && names != nil {
			kids = names
		}
	}

	out := model.Profiles{
		Spouse: &model.Spouse{Name: spouse},
		Kids:   make([]model.Kid, 0, len(kids)),
	}
	for i, name := range kids {
		if name == "" {
			name = fmt.Sprintf("Kid %d", i+1)
		}
		out.Kids = append(out.Kids, model.Kid{ID: fmt.Sprintf("k%d", i+1), Name: name})
	}
	return out
}
