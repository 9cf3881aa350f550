package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError indicates a scenario id that is not in the catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "scenario not found: " + e.ID
}

// Catalog is a read-only collection of scenario definitions.
type Catalog struct {
	defs map[string]Definition
	ids  []string
}

// New builds a catalog. Ids must be unique and every definition must carry a graph.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("scenario with empty id")
		}
		if d.Graph == nil {
			return nil, fmt.Errorf("scenario %s has no graph", d.ID)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id: %s", d.ID)
		}
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// List returns every definition, ordered by id.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.defs[id])
	}
	return out
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id string) (Definition, error) {
	d, ok := c.defs[id]
	if !ok {
		return Definition{}, &NotFoundError{ID: id}
	}
	return d, nil
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Query narrows a listing. Zero-valued fields match everything.
type Query struct {
	Category      string
	MaxDifficulty Difficulty
	Skill         string
}

// Filter returns the definitions matching q, ordered by id.
func (c *Catalog) Filter(q Query) []Definition {
	var out []Definition
	for _, d := range c.List() {
		if q.Category != "" && !strings.EqualFold(d.Category, q.Category) {
			continue
		}
		if q.MaxDifficulty != DifficultyUnknown && q.MaxDifficulty.Less(d.Difficulty) {
			continue
		}
		if q.Skill != "" && !d.HasSkill(q.Skill) {
			continue
		}
		out = append(out, d)
	}
	return out
}
