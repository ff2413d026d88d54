// Package catalog holds the meal types offered by the intake form and,
// for each one, the ordered flavor-control categories and their options.
// The sub-fields of step 2 are looked up here once per meal-type
// selection instead of being spelled out as branches.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Category is one flavor-control sub-field of a meal type.
type Category struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Required bool     `yaml:"required,omitempty"`
	Options  []string `yaml:"options"`
}

// HasOption reports whether value is one of the options, ignoring case.
func (c Category) HasOption(value string) bool {
	for _, o := range c.Options {
		if strings.EqualFold(o, value) {
			return true
		}
	}
	return false
}

// Canonical returns the option spelled as in the catalog, or value
// unchanged when it is not an option.
func (c Category) Canonical(value string) string {
	for _, o := range c.Options {
		if strings.EqualFold(o, value) {
			return o
		}
	}
	return value
}

// MealType is a selectable meal type and its categories in display order.
type MealType struct {
	Name       string     `yaml:"name"`
	Categories []Category `yaml:"categories"`
}

// Category returns the category with the given key.
func (m MealType) Category(key string) (Category, bool) {
	for _, c := range m.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Catalog is the ordered list of meal types.
type Catalog struct {
	MealTypes []MealType `yaml:"meal_types"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path yields the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decoding yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every meal type is named once, defines the
// skill-level category, and has no empty option lists.
func (c *Catalog) Validate() error {
	if len(c.MealTypes) == 0 {
		return fmt.Errorf("catalog: no meal types")
	}
	seen := make(map[string]bool)
	for _, mt := range c.MealTypes {
		name := strings.ToLower(strings.TrimSpace(mt.Name))
		if name == "" {
			return fmt.Errorf("catalog: meal type without a name")
		}
		if seen[name] {
			return fmt.Errorf("catalog: duplicate meal type %q", mt.Name)
		}
		seen[name] = true

		keys := make(map[string]bool)
		for _, cat := range mt.Categories {
			if cat.Key == "" {
				return fmt.Errorf("catalog: %s: category without a key", mt.Name)
			}
			if keys[cat.Key] {
				return fmt.Errorf("catalog: %s: duplicate category %q", mt.Name, cat.Key)
			}
			keys[cat.Key] = true
			if len(cat.Options) == 0 {
				return fmt.Errorf("catalog: %s: category %q has no options", mt.Name, cat.Key)
			}
		}
		if !keys[domain.CategorySkillLevel] {
			return fmt.Errorf("catalog: %s: missing %q category", mt.Name, domain.CategorySkillLevel)
		}
	}
	return nil
}

// Lookup finds a meal type by name, ignoring case.
func (c *Catalog) Lookup(name string) (MealType, bool) {
	name = strings.TrimSpace(name)
	for _, mt := range c.MealTypes {
		if strings.EqualFold(mt.Name, name) {
			return mt, true
		}
	}
	return MealType{}, false
}

// Names returns the meal type names in display order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.MealTypes))
	for _, mt := range c.MealTypes {
		out = append(out, mt.Name)
	}
	return out
}
