package gpt

// StepType classifies how much attention a step needs.
type StepType string

const (
	StepActive  StepType = "active"
	StepPassive StepType = "passive"
	StepWait    StepType = "wait"
)

// Recipe is the JSON object the model returns. It is forwarded to the
// caller as the opaque recipe of a submission result.
type Recipe struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PrepTime    int          `json:"prep_time"`
	CookTime    int          `json:"cook_time"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	Tags        []string     `json:"tags"`
	ServingSize int          `json:"serving_size"`
}

// Ingredient is one line of the ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Unit     *string `json:"unit"`
}

// Step is one instruction.
type Step struct {
	Number      int      `json:"step_number"`
	Instruction string   `json:"instruction"`
	Type        StepType `json:"step_type"`
}
