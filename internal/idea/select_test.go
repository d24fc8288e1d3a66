package idea

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/lovetoday/internal/catalog"
	"github.com/dukerupert/lovetoday/internal/model"
)

func basePrefs() model.Preferences {
	return model.Preferences{
		LoveLanguages: []model.LoveLanguage{model.TagTime, model.TagWords},
		TimeBudget:    model.Tag15Min,
		MoneyBudget:   model.TagBudgetLow,
		RemindAt:      "08:00",
	}
}

func newSelector(t *testing.T, ideas ...model.Idea) *Selector {
	t.Helper()
	c, err := catalog.New(ideas)
	require.NoError(t, err)
	return NewSelector(c)
}

func spouseIdea(id string, faith bool, tags ...model.Tag) model.Idea {
	idea := model.Idea{ID: id, Text: id, Recipient: model.RecipientSpouse, Tags: tags}
	if faith {
		idea.Faith = &model.Faith{Verse: "v", Ref: "r"}
	}
	return idea
}

func TestSelectIsDeterministic(t *testing.T) {
	prefs := basePrefs()
	first, err := Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		got, err := Select(prefs, model.RecipientSpouse, "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	}
}

func TestSelectPrefersHighestOverlap(t *testing.T) {
	s := newSelector(t,
		spouseIdea("s1", false, model.TagWords, model.Tag5Min, model.TagHome, model.TagBudgetLow),
		spouseIdea("s3", false, model.TagTime, model.Tag30Min, model.TagHome),
		spouseIdea("s6", false, model.TagTouch, model.TagTime, model.Tag5Min, model.TagHome),
		spouseIdea("best", false, model.TagTime, model.TagWords, model.Tag15Min, model.TagHome),
	)

	got, err := s.Select(basePrefs(), model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "best", got.ID)
}

func TestSelectFirstListedWinsTies(t *testing.T) {
	s := newSelector(t,
		spouseIdea("s3", false, model.TagTime, model.Tag30Min),
		spouseIdea("s6", false, model.TagTouch, model.TagTime),
	)

	got, err := s.Select(basePrefs(), model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "s3", got.ID)
}

func TestSelectCountsRepeatedLanguageOnce(t *testing.T) {
	s := newSelector(t,
		spouseIdea("first", false, model.TagBudgetLow),
		spouseIdea("second", false, model.TagTouch),
	)
	prefs := basePrefs()
	prefs.LoveLanguages = []model.LoveLanguage{model.TagTouch, model.TagTouch}

	got, err := s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "first", got.ID)
}

func TestSelectSkipsHistory(t *testing.T) {
	s := newSelector(t,
		spouseIdea("a", false, model.TagTime, model.TagWords, model.Tag15Min),
		spouseIdea("b", false, model.TagTime),
	)
	prefs := basePrefs()
	prefs.LastShownIDs = []string{"a"}

	got, err := s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestSelectFallsBackWhenHistoryExhausted(t *testing.T) {
	prefs := basePrefs()
	for _, idea := range catalog.Default().ForRecipient(model.RecipientKid) {
		prefs.LastShownIDs = append(prefs.LastShownIDs, idea.ID)
	}

	got, err := Select(prefs, model.RecipientKid, "")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, model.RecipientKid, got.Recipient)
}

func TestSelectFaithTieBreak(t *testing.T) {
	s := newSelector(t,
		spouseIdea("plain", false, model.TagTime),
		spouseIdea("verse", true, model.TagTime),
		spouseIdea("low", true, model.TagTouch),
	)
	prefs := basePrefs()

	got, err := s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "plain", got.ID, "faith mode off keeps catalog order")

	prefs.FaithMode = true
	got, err = s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "verse", got.ID)
}

func TestSelectFaithDoesNotBeatHigherScore(t *testing.T) {
	s := newSelector(t,
		spouseIdea("verse", true, model.TagTouch),
		spouseIdea("plain", false, model.TagTime, model.TagWords),
	)
	prefs := basePrefs()
	prefs.FaithMode = true

	got, err := s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "plain", got.ID)
}

func TestSelectUsesOverrides(t *testing.T) {
	kidIdea := func(id string, tags ...model.Tag) model.Idea {
		return model.Idea{ID: id, Recipient: model.RecipientKid, Tags: tags}
	}
	s := newSelector(t,
		spouseIdea("s-time", false, model.TagTime),
		spouseIdea("s-gifts", false, model.TagGifts),
		kidIdea("k-time", model.TagTime),
		kidIdea("k-touch", model.TagTouch),
	)
	prefs := basePrefs()
	prefs.SpouseLoveLanguages = []model.LoveLanguage{model.TagGifts}
	prefs.KidsLoveLanguages = map[string][]model.LoveLanguage{"k2": {model.TagTouch}}

	got, err := s.Select(prefs, model.RecipientSpouse, "")
	require.NoError(t, err)
	assert.Equal(t, "s-gifts", got.ID)

	got, err = s.Select(prefs, model.RecipientKid, "k2")
	require.NoError(t, err)
	assert.Equal(t, "k-touch", got.ID)

	got, err = s.Select(prefs, model.RecipientKid, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k-time", got.ID, "kid without override uses global languages")

	got, err = s.Select(prefs, model.RecipientKid, "")
	require.NoError(t, err)
	assert.Equal(t, "k-time", got.ID)
}

func TestSelectEmptyPool(t *testing.T) {
	s := newSelector(t, spouseIdea("only", false))

	_, err := s.Select(basePrefs(), model.RecipientFamily, "")
	assert.True(t, errors.Is(err, ErrNoIdeas))
}
