// Package domain defines the core types and interfaces for the recipe intake workflow.
// All other packages depend on domain; domain depends on nothing.
package domain

import "strings"

// Flavor-control category keys shared by every meal type.
const (
	CategoryFlavor     = "flavor"
	CategorySkillLevel = "skill_level"
)

// IntakeForm is the single live form of a session. Every value is kept as
// the text the user typed; numeric fields are parsed on validation and
// when the outbound request is built.
type IntakeForm struct {
	MealName                string            `json:"mealName"`
	Description             string            `json:"description"`
	ServingSize             string            `json:"servingSize"`
	MealType                string            `json:"mealType"`
	FlavorControls          map[string]string `json:"flavorControls,omitempty"`
	TimeConstraints         string            `json:"timeConstraints"`
	CalorieRange            string            `json:"calorieRange"`
	ProteinTargetPerServing string            `json:"proteinTargetPerServing"`
}

// Clone returns a deep copy of the form.
func (f IntakeForm) Clone() IntakeForm {
	out := f
	if f.FlavorControls != nil {
		out.FlavorControls = make(map[string]string, len(f.FlavorControls))
		for k, v := range f.FlavorControls {
			out.FlavorControls[k] = v
		}
	}
	return out
}

// IsEmpty reports whether no field carries a value.
func (f IntakeForm) IsEmpty() bool {
	if len(f.FlavorControls) > 0 {
		for _, v := range f.FlavorControls {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
	}
	for _, v := range []string{
		f.MealName, f.Description, f.ServingSize, f.MealType,
		f.TimeConstraints, f.CalorieRange, f.ProteinTargetPerServing,
	} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Control returns the value of a flavor-control category, or "".
func (f IntakeForm) Control(key string) string {
	if f.FlavorControls == nil {
		return ""
	}
	return f.FlavorControls[key]
}

// SetControl sets or clears (empty value) a flavor-control category.
func (f *IntakeForm) SetControl(key, value string) {
	if value == "" {
		delete(f.FlavorControls, key)
		return
	}
	if f.FlavorControls == nil {
		f.FlavorControls = make(map[string]string)
	}
	f.FlavorControls[key] = value
}

// Value returns the text of a field. Sub-fields read from FlavorControls.
func (f IntakeForm) Value(field Field) string {
	switch field {
	case FieldMealName:
		return f.MealName
	case FieldDescription:
		return f.Description
	case FieldServingSize:
		return f.ServingSize
	case FieldMealType:
		return f.MealType
	case FieldSkillLevel:
		return f.Control(CategorySkillLevel)
	case FieldFlavor:
		return f.Control(CategoryFlavor)
	case FieldTimeConstraints:
		return f.TimeConstraints
	case FieldCalorieRange:
		return f.CalorieRange
	case FieldProteinTarget:
		return f.ProteinTargetPerServing
	default:
		return ""
	}
}

// Set writes the text of a field. Returns false for unknown fields.
func (f *IntakeForm) Set(field Field, value string) bool {
	switch field {
	case FieldMealName:
		f.MealName = value
	case FieldDescription:
		f.Description = value
	case FieldServingSize:
		f.ServingSize = value
	case FieldMealType:
		f.MealType = value
	case FieldSkillLevel:
		f.SetControl(CategorySkillLevel, value)
	case FieldFlavor:
		f.SetControl(CategoryFlavor, value)
	case FieldTimeConstraints:
		f.TimeConstraints = value
	case FieldCalorieRange:
		f.CalorieRange = value
	case FieldProteinTarget:
		f.ProteinTargetPerServing = value
	default:
		return false
	}
	return true
}

// Field names a validated input of the intake form.
type Field string

const (
	FieldMealName        Field = "mealName"
	FieldDescription     Field = "description"
	FieldServingSize     Field = "servingSize"
	FieldMealType        Field = "mealType"
	FieldSkillLevel      Field = "skillLevel"
	FieldFlavor          Field = "flavor"
	FieldTimeConstraints Field = "timeConstraints"
	FieldCalorieRange    Field = "calorieRange"
	FieldProteinTarget   Field = "proteinTargetPerServing"
)

// Fields lists every field in form order.
var Fields = []Field{
	FieldMealName,
	FieldDescription,
	FieldServingSize,
	FieldMealType,
	FieldSkillLevel,
	FieldFlavor,
	FieldTimeConstraints,
	FieldCalorieRange,
	FieldProteinTarget,
}

// fieldAliases maps loose user spellings to field names.
var fieldAliases = map[string]Field{
	"mealname":                FieldMealName,
	"name":                    FieldMealName,
	"meal":                    FieldMealName,
	"description":             FieldDescription,
	"desc":                    FieldDescription,
	"servingsize":             FieldServingSize,
	"servings":                FieldServingSize,
	"serving":                 FieldServingSize,
	"mealtype":                FieldMealType,
	"type":                    FieldMealType,
	"skilllevel":              FieldSkillLevel,
	"skill":                   FieldSkillLevel,
	"flavor":                  FieldFlavor,
	"flavour":                 FieldFlavor,
	"timeconstraints":         FieldTimeConstraints,
	"time":                    FieldTimeConstraints,
	"calorierange":            FieldCalorieRange,
	"calories":                FieldCalorieRange,
	"proteintargetperserving": FieldProteinTarget,
	"protein":                 FieldProteinTarget,
}

// FieldFromString resolves a field name or alias, ignoring case, spaces,
// dashes and underscores.
func FieldFromString(s string) (Field, bool) {
	key := strings.ToLower(s)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	f, ok := fieldAliases[key]
	return f, ok
}

// Label returns a human-readable field label.
func (f Field) Label() string {
	switch f {
	case FieldMealName:
		return "Meal name"
	case FieldDescription:
		return "Description"
	case FieldServingSize:
		return "Serving size"
	case FieldMealType:
		return "Meal type"
	case FieldSkillLevel:
		return "Cooking skill level"
	case FieldFlavor:
		return "Flavor"
	case FieldTimeConstraints:
		return "Time constraints"
	case FieldCalorieRange:
		return "Calorie range"
	case FieldProteinTarget:
		return "Protein per serving"
	default:
		return string(f)
	}
}

// FieldErrors maps a field to its current error message. A missing key
// means the field is valid or untouched.
type FieldErrors map[Field]string

// Clone returns a copy of the error set.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
