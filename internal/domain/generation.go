package domain

import (
	"encoding/json"
	"time"
)

// GenerationRequest is the outbound body of a generation call. Every
// optional field is a pointer so that an absent value serialises as an
// explicit null rather than an empty string.
type GenerationRequest struct {
	MealName                *string           `json:"meal_name"`
	Description             string            `json:"description"`
	ServingSize             *int              `json:"serving_size"`
	MealType                *string           `json:"meal_type"`
	FlavorControls          map[string]string `json:"flavor_controls"`
	CookingSkillLevel       *string           `json:"cooking_skill_level"`
	TimeConstraints         *string           `json:"time_constraints"`
	CalorieRange            *string           `json:"calorie_range"`
	ProteinTargetPerServing *float64          `json:"protein_target_per_serving"`
}

// GenerationResponse is the success body of a generation call. Recipe is
// opaque to the intake workflow; it is stored and forwarded as is.
type GenerationResponse struct {
	RecipeID string          `json:"recipe_id"`
	Recipe   json.RawMessage `json:"recipe"`
}

// SubmissionResult is handed to the caller of a successful submission.
type SubmissionResult struct {
	RecipeID    string
	Recipe      json.RawMessage
	Mode        Mode
	SubmittedAt time.Time
}

// Identity is the current user as reported by the identity provider.
type Identity struct {
	UserID string
	Token  string
}
