package gpt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

// System prompts live here so wording changes are a single-file edit.

// PromptRecipe asks for one recipe as a single JSON object.
const PromptRecipe = `You are an expert chef and recipe creator. Generate a detailed, accurate and flavorful recipe strictly based on the User Requirements.

Hard rules:
- The User Requirements define the dish type, structure, cuisine and core ingredients. Nothing overrides them.
- Use only ingredients that logically belong to the requested dish.
- The title must match the requested meal name as closely as possible. Do not add labels like "healthy" or "keto" unless the user used them.
- Use techniques that fit the dish.
- Every step has exactly one step_type: "active" (continuous work like chopping or stirring), "passive" (monitoring like simmering or baking) or "wait" (resting, marinating, cooling). Split steps that mix them.
- Give realistic prep_time and cook_time in minutes.

Respond ONLY with a JSON object, no markdown fences, no text before or after:
{
  "title": "string",
  "description": "string",
  "prep_time": 0,
  "cook_time": 0,
  "ingredients": [{"name": "string", "quantity": "string", "unit": "string or null"}],
  "steps": [{"step_number": 1, "instruction": "string", "step_type": "active"}],
  "tags": ["string"],
  "serving_size": 0
}`

// noRequirements stands in when a request carries nothing usable.
const noRequirements = "- Description: (User will provide description)"

// Requirements renders the user requirements block of a request, one
// labelled line per field that carries a value.
func Requirements(req domain.GenerationRequest) string {
	var lines []string
	add := func(label, value string) {
		lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
	}

	if req.Description != "" {
		add("Description", req.Description)
	}
	if v := deref(req.MealName); v != "" {
		add("Meal Name", v)
	}
	if req.ServingSize != nil {
		add("Serving Size", strconv.Itoa(*req.ServingSize))
	}
	if v := deref(req.MealType); v != "" {
		add("Meal Type", v)
	}
	if len(req.FlavorControls) > 0 {
		// Map keys marshal sorted, so the line is stable.
		b, _ := json.Marshal(req.FlavorControls)
		add("Flavor Profile", string(b))
	}
	if v := deref(req.CookingSkillLevel); v != "" {
		add("Cooking Skill Level", v)
	}
	if v := deref(req.TimeConstraints); v != "" {
		add("Time Constraints", v)
	}
	if v := deref(req.CalorieRange); v != "" {
		add("Calorie Range", v)
	}
	if req.ProteinTargetPerServing != nil {
		g := strconv.FormatFloat(*req.ProteinTargetPerServing, 'f', -1, 64)
		add("Target Protein per Serving (g)", g+" g per serving")
	}

	if len(lines) == 0 {
		return noRequirements
	}
	return strings.Join(lines, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
