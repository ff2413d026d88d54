// Package summary renders the one-line preview of what the user is about
// to ask for. It always produces a string.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/validate"
)

// Prompts shown when there is not enough input for a sentence.
const (
	QuickPrompt   = "Describe what you want to cook in a sentence or two."
	GuidedPrompt  = "Tell us about the meal you have in mind."
	quickPreview  = 60
	quickEllipsis = "..."
)

// Generate returns the preview for the given mode and form. In quick mode
// only the description is used.
func Generate(mode domain.Mode, form domain.IntakeForm) string {
	if mode == domain.ModeQuick {
		return quick(form.Description)
	}
	return guided(form)
}

func quick(description string) string {
	d := strings.Join(strings.Fields(description), " ")
	if d == "" {
		return QuickPrompt
	}
	if utf8.RuneCountInString(d) > quickPreview {
		r := []rune(d)
		d = strings.TrimSpace(string(r[:quickPreview])) + quickEllipsis
	}
	return fmt.Sprintf("Quick recipe: %q", d)
}

func guided(form domain.IntakeForm) string {
	name := strings.TrimSpace(form.MealName)
	if name == "" {
		return GuidedPrompt
	}
	servings, hasServings := validate.ParseServingSize(form.ServingSize)
	mealType := strings.TrimSpace(form.MealType)

	if hasServings && mealType != "" {
		kind := strings.ToLower(mealType)
		if flavor := strings.TrimSpace(form.Control(domain.CategoryFlavor)); flavor != "" {
			kind = strings.ToLower(flavor) + " " + kind
		}
		return fmt.Sprintf("%s: %s %s for %s.", name, article(kind), kind, people(servings))
	}
	if hasServings {
		return fmt.Sprintf("%s for %s.", name, people(servings))
	}
	return name + "."
}

func people(n int) string {
	if n == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", n)
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

// Memo caches the last generated summary, keyed on the exact fields the
// summary depends on. Safe for concurrent use.
type Memo struct {
	mu     sync.Mutex
	key    string
	value  string
	valid  bool
	hits   int
	misses int
}

// Get returns the summary, recomputing it only when a dependency changed.
func (m *Memo) Get(mode domain.Mode, form domain.IntakeForm) string {
	k := key(mode, form)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == k {
		m.hits++
		return m.value
	}
	m.misses++
	m.key = k
	m.value = Generate(mode, form)
	m.valid = true
	return m.value
}

// Stats returns cache hits and misses.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func key(mode domain.Mode, form domain.IntakeForm) string {
	parts := []string{mode.String(), form.Description, form.MealName, form.ServingSize, form.MealType}
	keys := make([]string, 0, len(form.FlavorControls))
	for k := range form.FlavorControls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+form.FlavorControls[k])
	}
	return strings.Join(parts, "\x00")
}
