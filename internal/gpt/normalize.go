package gpt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

// Errors for model output that cannot be used as a recipe.
var (
	ErrNoIngredients = errors.New("recipe has no ingredients")
	ErrNoSteps       = errors.New("recipe has no steps")
)

// normalize cleans up a recipe returned by the model in place and checks
// it is usable. Gaps are filled from the request.
func normalize(r *Recipe, req domain.GenerationRequest) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = deref(req.MealName)
	}
	if r.Title == "" {
		return errors.New("recipe has no title")
	}
	r.Description = strings.TrimSpace(r.Description)

	if r.PrepTime < 0 || r.CookTime < 0 {
		return fmt.Errorf("negative time (prep %d, cook %d)", r.PrepTime, r.CookTime)
	}
	if r.ServingSize <= 0 && req.ServingSize != nil {
		r.ServingSize = *req.ServingSize
	}

	ingredients := r.Ingredients[:0]
	for _, ing := range r.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return ErrNoIngredients
	}
	r.Ingredients = ingredients

	steps := r.Steps[:0]
	for _, st := range r.Steps {
		st.Instruction = strings.TrimSpace(st.Instruction)
		if st.Instruction == "" {
			continue
		}
		switch StepType(strings.ToLower(string(st.Type))) {
		case StepPassive:
			st.Type = StepPassive
		case StepWait:
			st.Type = StepWait
		default:
			st.Type = StepActive
		}
		st.Number = len(steps) + 1
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return ErrNoSteps
	}
	r.Steps = steps

	tags := r.Tags[:0]
	seen := make(map[string]bool, len(r.Tags))
	for _, t := range r.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	r.Tags = tags
	return nil
}
