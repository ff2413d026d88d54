// Package validate implements the per-field rules of the intake form.
// Every function is pure: it looks at a value and returns an error or nil.
// Deciding when an error is shown (touched fields only) is up to the caller.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

// Bounds of the rules.
const (
	MinMealNameLen    = 2
	MinDescriptionLen = 10
	MinServings       = 1
	MaxServings       = 50
)

// Messages surfaced to the user.
const (
	MsgMealNameRequired    = "Meal name is required"
	MsgMealNameShort       = "Meal name must be at least 2 characters"
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionShort    = "Description must be at least 10 characters"
	MsgServingSize         = "Serving size must be a whole number between 1 and 50"
	MsgMealTypeRequired    = "Please select a meal type"
	MsgSkillLevelRequired  = "Please select a cooking skill level"
	MsgCalorieFormat       = "Calorie range must look like min-max, e.g. 400-600"
	MsgCalorieOrder        = "Minimum calories must be less than maximum"
	MsgProteinTarget       = "Protein target must be a positive number"
)

// calorieRangeRe admits no whitespace anywhere in the value.
var calorieRangeRe = regexp.MustCompile(`^(\d+)-(\d+)$`)

// FieldError is a failed rule for a single field.
type FieldError struct {
	Field   domain.Field
	Message string
}

func (e *FieldError) Error() string { return string(e.Field) + ": " + e.Message }

func fail(field domain.Field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// Field checks one field's value against its rule.
func Field(field domain.Field, value string) error {
	switch field {
	case domain.FieldMealName:
		return minLength(field, value, MinMealNameLen, MsgMealNameRequired, MsgMealNameShort)
	case domain.FieldDescription:
		return minLength(field, value, MinDescriptionLen, MsgDescriptionRequired, MsgDescriptionShort)
	case domain.FieldServingSize:
		if _, ok := ParseServingSize(value); !ok {
			return fail(field, MsgServingSize)
		}
	case domain.FieldMealType:
		if strings.TrimSpace(value) == "" {
			return fail(field, MsgMealTypeRequired)
		}
	case domain.FieldSkillLevel:
		if strings.TrimSpace(value) == "" {
			return fail(field, MsgSkillLevelRequired)
		}
	case domain.FieldCalorieRange:
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if _, _, err := ParseCalorieRange(value); err != nil {
			return err
		}
	case domain.FieldProteinTarget:
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if _, ok := ParseProteinTarget(value); !ok {
			return fail(field, MsgProteinTarget)
		}
	}
	return nil
}

func minLength(field domain.Field, value string, min int, required, short string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fail(field, required)
	}
	if utf8.RuneCountInString(trimmed) < min {
		return fail(field, short)
	}
	return nil
}

// ParseServingSize parses a whole number of servings in [1, 50].
func ParseServingSize(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < MinServings || n > MaxServings {
		return 0, false
	}
	return n, true
}

// ParseCalorieRange parses "min-max" with min < max.
func ParseCalorieRange(value string) (min, max int, err error) {
	m := calorieRangeRe.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, fail(domain.FieldCalorieRange, MsgCalorieFormat)
	}
	min, err1 := strconv.Atoi(m[1])
	max, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, fail(domain.FieldCalorieRange, MsgCalorieFormat)
	}
	if min >= max {
		return 0, 0, fail(domain.FieldCalorieRange, MsgCalorieOrder)
	}
	return min, max, nil
}

// ParseProteinTarget parses a positive number of grams.
func ParseProteinTarget(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

// Message returns the user-facing text of a validation error.
func Message(err error) string {
	if fe, ok := err.(*FieldError); ok {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
