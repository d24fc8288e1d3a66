package model

// Recipient is who an idea is meant for.
type Recipient string

const (
	RecipientSpouse Recipient = "spouse"
	RecipientKid    Recipient = "kid"
	RecipientFamily Recipient = "family"
)

// Recipients lists every recipient category in display order.
var Recipients = []Recipient{RecipientSpouse, RecipientKid, RecipientFamily}

// Valid reports whether r is a known recipient.
func (r Recipient) Valid() bool {
	switch r {
	case RecipientSpouse, RecipientKid, RecipientFamily:
		return true
	}
	return false
}

// Tag describes an idea: love language, budget, duration, or location.
type Tag string

// LoveLanguage is the subset of tags naming a way of expressing affection.
type LoveLanguage = Tag

const (
	TagTime    Tag = "time"
	TagWords   Tag = "words"
	TagGifts   Tag = "gifts"
	TagService Tag = "service"
	TagTouch   Tag = "touch"

	TagBudgetLow  Tag = "budget:$"
	TagBudgetHigh Tag = "budget:$$"

	Tag5Min  Tag = "5min"
	Tag15Min Tag = "15min"
	Tag30Min Tag = "30min"

	TagHome Tag = "home"
	TagOut  Tag = "out"
)

var (
	loveLanguages = map[Tag]bool{TagTime: true, TagWords: true, TagGifts: true, TagService: true, TagTouch: true}
	timeBudgets   = map[Tag]bool{Tag5Min: true, Tag15Min: true, Tag30Min: true}
	moneyBudgets  = map[Tag]bool{TagBudgetLow: true, TagBudgetHigh: true}
	locations     = map[Tag]bool{TagHome: true, TagOut: true}
)

// IsLoveLanguage reports whether t is one of the five love languages.
func (t Tag) IsLoveLanguage() bool { return loveLanguages[t] }

// IsTimeBudget reports whether t is a duration tag.
func (t Tag) IsTimeBudget() bool { return timeBudgets[t] }

// IsMoneyBudget reports whether t is a budget tag.
func (t Tag) IsMoneyBudget() bool { return moneyBudgets[t] }

// Valid reports whether t belongs to the closed tag vocabulary.
func (t Tag) Valid() bool {
	return loveLanguages[t] || timeBudgets[t] || moneyBudgets[t] || locations[t]
}

// Faith is the optional verse shown alongside an idea in faith mode.
type Faith struct {
	Verse string `json:"verse" yaml:"verse"`
	Ref   string `json:"ref" yaml:"ref"`
}

// Idea is a catalog entry. Text may contain {{spouse}}, {{kid}} and
// {{family}} placeholders.
type Idea struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Recipient Recipient `json:"recipient" yaml:"recipient"`
	Tags      []Tag     `json:"tags" yaml:"tags"`
	Faith     *Faith    `json:"faith,omitempty" yaml:"faith,omitempty"`
}

// HasTag reports whether the idea carries t.
func (i Idea) HasTag(t Tag) bool {
	for _, tag := range i.Tags {
		if tag == t {
			return true
		}
	}
	return false
}
