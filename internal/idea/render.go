package idea

import (
	"strings"

	"github.com/dukerupert/lovetoday/internal/model"
)

// Render fills the name placeholders in the idea text. kidID picks the child
// for {{kid}}; when it does not match, the first child is used.
func Render(idea model.Idea, prefs model.Preferences, kidID string) string {
	r := strings.NewReplacer(
		"{{spouse}}", SpouseName(prefs),
		"{{kid}}", KidName(prefs, kidID),
		"{{family}}", FamilyLabel(prefs),
	)
	return r.Replace(idea.Text)
}

// SpouseName returns the configured spouse name or "your spouse".
func SpouseName(prefs model.Preferences) string {
	if s := prefs.Profiles.Spouse; s != nil {
		if name := strings.TrimSpace(s.Name); name != "" {
			return name
		}
	}
	return "your spouse"
}

// KidName returns the name of the selected child, falling back to the first
// child and then to "your child".
func KidName(prefs model.Preferences, kidID string) string {
	if k, ok := prefs.Kid(kidID); ok && strings.TrimSpace(k.Name) != "" {
		return strings.TrimSpace(k.Name)
	}
	if len(prefs.Profiles.Kids) > 0 {
		if name := strings.TrimSpace(prefs.Profiles.Kids[0].Name); name != "" {
			return name
		}
	}
	return "your child"
}

// FamilyLabel names the household: "A", "A and B", or "A, B & family".
func FamilyLabel(prefs model.Preferences) string {
	var names []string
	if s := prefs.Profiles.Spouse; s != nil {
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	for _, k := range prefs.Profiles.Kids {
		if name := strings.TrimSpace(k.Name); name != "" {
			names = append(names, name)
		}
	}

	switch len(names) {
	case 0:
		return "your family"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return names[0] + ", " + names[1] + " & family"
	}
}
