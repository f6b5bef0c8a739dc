package types

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is the bucket used when grouping results for an item without a category
const DefaultCategory = "Other"

// Dietary holds the dietary flags of a menu item
type Dietary struct {
	IsVegetarian bool `json:"isVegetarian" yaml:"isVegetarian"`
	IsVegan      bool `json:"isVegan" yaml:"isVegan"`
	IsGlutenFree bool `json:"isGlutenFree" yaml:"isGlutenFree"`
}

// MenuItem is a single dish as supplied by the caller.
// Optional fields default to their zero value; Calories is nil when unknown.
type MenuItem struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category" yaml:"category"`
	SubCategory string   `json:"subCategory,omitempty" yaml:"subCategory,omitempty"`
	Price       Price    `json:"price" yaml:"price"`
	Dietary     Dietary  `json:"dietary" yaml:"dietary"`
	Ingredients []string `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
	Allergens   []string `json:"allergens,omitempty" yaml:"allergens,omitempty"`
	Pairings    []string `json:"pairings,omitempty" yaml:"pairings,omitempty"`
	Calories    *int     `json:"calories,omitempty" yaml:"calories,omitempty"`
}

// Menu is the full collection handed to the indexer
type Menu struct {
	Items []MenuItem `json:"items" yaml:"items"`
}

// Validate reports whether the item carries the fields required for indexing
func (m *MenuItem) Validate() error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return ErrMissingID
	case strings.TrimSpace(m.Name) == "":
		return ErrMissingName
	case strings.TrimSpace(m.Category) == "":
		return ErrMissingCategory
	}
	return nil
}

// HasCaloriesBelow reports whether calories are known and strictly below limit
func (m *MenuItem) HasCaloriesBelow(limit int) bool {
	return m.Calories != nil && *m.Calories < limit
}

// Clone returns a deep copy so callers can't mutate indexed state through shared slices
func (m MenuItem) Clone() MenuItem {
	c := m
	c.Ingredients = cloneStrings(m.Ingredients)
	c.Allergens = cloneStrings(m.Allergens)
	c.Pairings = cloneStrings(m.Pairings)
	if m.Calories != nil {
		cal := *m.Calories
		c.Calories = &cal
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Price is a menu price. It decodes from numbers or numeric strings;
// anything else decodes to 0.
type Price float64

// ParsePrice converts a raw price string, falling back to 0
func ParsePrice(s string) Price {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Price(f)
}

// UnmarshalJSON accepts a number, a numeric string or null
func (p *Price) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Price(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParsePrice(s)
		return nil
	}

	*p = 0
	return nil
}

// UnmarshalYAML accepts any scalar
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*p = 0
		return nil
	}
	*p = ParsePrice(node.Value)
	return nil
}
