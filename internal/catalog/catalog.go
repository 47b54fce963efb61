// Package catalog provides the static, versioned set of candidate activities.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

//go:embed activities.yaml
var embedded []byte

// Catalog is an immutable list of activities in catalog order
type Catalog struct {
	version    int
	activities []models.Activity
	byID       map[int]int
}

type document struct {
	Version    int               `yaml:"version"`
	Activities []models.Activity `yaml:"activities"`
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse activity catalog: %w", err)
	}
	if doc.Version <= 0 {
		return nil, errors.New("activity catalog has no version")
	}

	c := &Catalog{
		version:    doc.Version,
		activities: doc.Activities,
		byID:       make(map[int]int, len(doc.Activities)),
	}
	for i, a := range doc.Activities {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("activity %d has no name", a.ID)
		}
		if a.DurationMinutes <= 0 {
			return nil, fmt.Errorf("activity %q has non-positive duration", a.Name)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate activity id %d", a.ID)
		}
		c.byID[a.ID] = i
	}
	return c, nil
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// MustLoad parses the embedded catalog and panics on error
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Version returns the catalog document version
func (c *Catalog) Version() int {
	return c.version
}

// All returns a copy of every activity in catalog order
func (c *Catalog) All() []models.Activity {
	out := make([]models.Activity, len(c.activities))
	copy(out, c.activities)
	return out
}

// ByID looks up a single activity
func (c *Catalog) ByID(id int) (models.Activity, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Activity{}, false
	}
	return c.activities[i], true
}
