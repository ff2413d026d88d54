// Package defaults picks the pre-selected option of each flavor-control
// category when the user chooses a meal type, without ever replacing a
// value that is already there.
package defaults

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/domain"
)

// preferredSkill is the skill-level option picked when offered.
const preferredSkill = "intermediate"

// Resolve computes the default option of a category.
//
//   - flavor has no forced default and yields "".
//   - skill_level yields the "Intermediate" option, else the middle option.
//   - any other category yields the first option containing "medium" or
//     "balanced" or equal to "moderate", else the middle option.
//
// Matching ignores case. An empty option list yields "".
func Resolve(categoryKey string, options []string) string {
	if len(options) == 0 || categoryKey == domain.CategoryFlavor {
		return ""
	}
	fold := cases.Fold()
	if categoryKey == domain.CategorySkillLevel {
		for _, o := range options {
			if fold.String(strings.TrimSpace(o)) == preferredSkill {
				return o
			}
		}
		return options[len(options)/2]
	}
	for _, o := range options {
		f := fold.String(strings.TrimSpace(o))
		if strings.Contains(f, "medium") || strings.Contains(f, "balanced") || f == "moderate" {
			return o
		}
	}
	return options[len(options)/2]
}

// Resolver applies defaults for one session. It remembers which meal
// types were already defaulted and which categories the user set by hand.
// It is not safe for concurrent use; the owning session serialises access.
type Resolver struct {
	catalog   *catalog.Catalog
	defaulted map[string]bool
	explicit  map[string]bool
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{
		catalog:   c,
		defaulted: make(map[string]bool),
		explicit:  make(map[string]bool),
	}
}

// MarkExplicit records that the user set a category by hand.
func (r *Resolver) MarkExplicit(key string) { r.explicit[key] = true }

// Explicit reports whether the user set a category by hand.
func (r *Resolver) Explicit(key string) bool { return r.explicit[key] }

// MarkDefaulted records a meal type as already defaulted, e.g. when a
// draft is resumed with its selections in place.
func (r *Resolver) MarkDefaulted(mealType string) {
	r.defaulted[strings.ToLower(strings.TrimSpace(mealType))] = true
}

// Defaulted reports whether the meal type was already defaulted.
func (r *Resolver) Defaulted(mealType string) bool {
	return r.defaulted[strings.ToLower(strings.TrimSpace(mealType))]
}

// Reset forgets everything, as for a new form.
func (r *Resolver) Reset() {
	r.defaulted = make(map[string]bool)
	r.explicit = make(map[string]bool)
}

// Apply reconciles the form's flavor controls with a newly selected meal
// type and returns the category keys it filled in.
//
// Keys the meal type does not define are dropped, except flavor. Keys
// that already hold a value are never overwritten. Unset required
// categories are always filled; unset optional categories only the first
// time the meal type is chosen in this session.
func (r *Resolver) Apply(form *domain.IntakeForm, mealType string) []string {
	mt, ok := r.catalog.Lookup(mealType)
	if !ok {
		return nil
	}
	firstVisit := !r.Defaulted(mt.Name)

	for key := range form.FlavorControls {
		if key == domain.CategoryFlavor {
			continue
		}
		if _, defined := mt.Category(key); !defined {
			delete(form.FlavorControls, key)
			delete(r.explicit, key)
		}
	}

	var filled []string
	for _, cat := range mt.Categories {
		if form.Control(cat.Key) != "" {
			continue
		}
		if !cat.Required && !firstVisit {
			continue
		}
		if v := Resolve(cat.Key, cat.Options); v != "" {
			form.SetControl(cat.Key, v)
			filled = append(filled, cat.Key)
		}
	}

	r.MarkDefaulted(mt.Name)
	return filled
}
