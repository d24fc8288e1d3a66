// Package catalog holds the built-in ideas. The catalog is parsed once and
// never changes at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/lovetoday/internal/model"
)

//go:embed ideas.yaml
var ideasYAML []byte

var (
	loadOnce sync.Once
	builtin  *Catalog
	loadErr  error
)

// Catalog is an ordered, read-only list of ideas.
type Catalog struct {
	ideas []model.Idea
	byID  map[string]int
}

// Default returns the embedded catalog. It panics if the embedded data is
// malformed, which a unit test guards against.
func Default() *Catalog {
	loadOnce.Do(func() {
		builtin, loadErr = Parse(ideasYAML)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("catalog: %v", loadErr))
	}
	return builtin
}

// Parse decodes and validates a YAML idea list.
func Parse(data []byte) (*Catalog, error) {
	var ideas []model.Idea
	if err := yaml.Unmarshal(data, &ideas); err != nil {
		return nil, fmt.Errorf("decode ideas: %w", err)
	}
	return New(ideas)
}

// New builds a catalog from ideas, keeping their order.
func New(ideas []model.Idea) (*Catalog, error) {
	c := &Catalog{
		ideas: make([]model.Idea, len(ideas)),
		byID:  make(map[string]int, len(ideas)),
	}
	copy(c.ideas, ideas)

	for i, idea := range c.ideas {
		if idea.ID == "" {
			return nil, fmt.Errorf("idea %d: missing id", i)
		}
		if _, dup := c.byID[idea.ID]; dup {
			return nil, fmt.Errorf("idea %q: duplicate id", idea.ID)
		}
		if !idea.Recipient.Valid() {
			return nil, fmt.Errorf("idea %q: unknown recipient %q", idea.ID, idea.Recipient)
		}
		for _, tag := range idea.Tags {
			if !tag.Valid() {
				return nil, fmt.Errorf("idea %q: unknown tag %q", idea.ID, tag)
			}
		}
		c.byID[idea.ID] = i
	}
	return c, nil
}

// All returns a copy of every idea in catalog order.
func (c *Catalog) All() []model.Idea {
	out := make([]model.Idea, len(c.ideas))
	copy(out, c.ideas)
	return out
}

// ForRecipient returns the ideas for r in catalog order.
func (c *Catalog) ForRecipient(r model.Recipient) []model.Idea {
	var out []model.Idea
	for _, idea := range c.ideas {
		if idea.Recipient == r {
			out = append(out, idea)
		}
	}
	return out
}

// Get looks up an idea by id.
func (c *Catalog) Get(id string) (model.Idea, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Idea{}, false
	}
	return c.ideas[i], true
}

// Len returns the number of ideas.
func (c *Catalog) Len() int {
	return len(c.ideas)
}
