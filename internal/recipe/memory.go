// Package recipe keeps the recipes handed back by successful submissions
// and remembers which one is current.
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Entry is a received recipe plus the fields read from its opaque body
// for listing.
type Entry struct {
	domain.SubmissionResult
	Title string
	Tags  []string
}

// header is the part of the recipe body the inbox reads. Everything else
// is kept opaque.
type header struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// Inbox holds received recipes in memory. Safe for concurrent access.
type Inbox struct {
	mu      sync.RWMutex
	recipes map[string]*Entry
	current string
	log     *logger.Logger
}

// NewInbox creates an empty inbox.
func NewInbox(log *logger.Logger) *Inbox {
	return &Inbox{
		recipes: make(map[string]*Entry),
		log:     log,
	}
}

// Deliver stores a recipe and makes it current.
func (in *Inbox) Deliver(ctx context.Context, result domain.SubmissionResult) error {
	if result.RecipeID == "" {
		return fmt.Errorf("recipe: delivery without an id")
	}
	e := &Entry{SubmissionResult: result}
	var h header
	if len(result.Recipe) > 0 {
		if err := json.Unmarshal(result.Recipe, &h); err != nil {
			in.log.Debug("recipe %s body is not an object: %v", result.RecipeID, err)
		}
	}
	e.Title = h.Title
	e.Tags = h.Tags

	in.mu.Lock()
	defer in.mu.Unlock()
	in.recipes[result.RecipeID] = e
	in.current = result.RecipeID
	in.log.Info("received recipe %s (%q, %s mode)", result.RecipeID, e.Title, result.Mode)
	return nil
}

// CurrentID returns the id of the last delivered recipe, or "".
func (in *Inbox) CurrentID() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.current
}

// Current returns the last delivered recipe.
func (in *Inbox) Current(ctx context.Context) (*Entry, error) {
	in.mu.RLock()
	id := in.current
	in.mu.RUnlock()
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return in.Get(ctx, id)
}

// Get returns a recipe by id.
func (in *Inbox) Get(ctx context.Context, id string) (*Entry, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	e, ok := in.recipes[id]
	if !ok {
		in.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// List returns every recipe, newest first.
func (in *Inbox) List(ctx context.Context) []Entry {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]Entry, 0, len(in.recipes))
	for _, e := range in.recipes {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].RecipeID < out[j].RecipeID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// Search returns recipes whose title or tags contain the query,
// case-insensitive.
func (in *Inbox) Search(ctx context.Context, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Entry
	for _, e := range in.List(ctx) {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e Entry, q string) bool {
	if q == "" || strings.Contains(strings.ToLower(e.Title), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
