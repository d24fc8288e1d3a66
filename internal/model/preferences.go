package model

// Kid is a child profile. IDs are assigned by the caller and stay stable.
type Kid struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Spouse is the spouse profile.
type Spouse struct {
	Name string `json:"name"`
}

// Profiles holds the names used to personalize idea text.
type Profiles struct {
	Spouse *Spouse `json:"spouse,omitempty"`
	Kids   []Kid   `json:"kids"`
}

// Preferences is the per-user settings record.
type Preferences struct {
	Profiles            Profiles                  `json:"profiles"`
	LoveLanguages       []LoveLanguage            `json:"loveLanguages"`
	SpouseLoveLanguages []LoveLanguage            `json:"spouseLoveLanguages,omitempty"`
	KidsLoveLanguages   map[string][]LoveLanguage `json:"kidsLoveLanguages,omitempty"`
	TimeBudget          Tag                       `json:"timeBudget"`
	MoneyBudget         Tag                       `json:"moneyBudget"`
	FaithMode           bool                      `json:"faithMode"`

	// RemindAt is the default reminder time. The other reminder fields fall
	// back to it when empty.
	RemindAt      string `json:"remindAt"`
	RemindWeekday string `json:"remindWeekday,omitempty"`
	RemindWeekend string `json:"remindWeekend,omitempty"`
	RemindCatchUp string `json:"remindCatchUp,omitempty"`

	// LastShownIDs is newest first.
	LastShownIDs []string `json:"lastShownIds"`
}

// HistoryLimit caps LastShownIDs.
const HistoryLimit = 30

// Kid returns the kid with the given id.
func (p Preferences) Kid(id string) (Kid, bool) {
	for _, k := range p.Profiles.Kids {
		if k.ID == id {
			return k, true
		}
	}
	return Kid{}, false
}
