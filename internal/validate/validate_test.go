package validate

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

func TestField(t *testing.T) {
	tests := []struct {
		name    string
		field   domain.Field
		value   string
		wantMsg string
	}{
		{"meal name ok", domain.FieldMealName, "Pho", ""},
		{"meal name blank", domain.FieldMealName, "   ", MsgMealNameRequired},
		{"meal name one char", domain.FieldMealName, " x ", MsgMealNameShort},
		{"description ok", domain.FieldDescription, "A spicy curry with rice", ""},
		{"description short", domain.FieldDescription, "too short", MsgDescriptionShort},
		{"description padded short", domain.FieldDescription, "  123456789  ", MsgDescriptionShort},
		{"description exactly ten", domain.FieldDescription, "1234567890", ""},
		{"description empty", domain.FieldDescription, "", MsgDescriptionRequired},
		{"servings ok", domain.FieldServingSize, "2", ""},
		{"servings padded", domain.FieldServingSize, " 50 ", ""},
		{"servings zero", domain.FieldServingSize, "0", MsgServingSize},
		{"servings fraction", domain.FieldServingSize, "2.5", MsgServingSize},
		{"meal type empty", domain.FieldMealType, "", MsgMealTypeRequired},
		{"skill empty", domain.FieldSkillLevel, "", MsgSkillLevelRequired},
		{"flavor optional", domain.FieldFlavor, "", ""},
		{"time optional", domain.FieldTimeConstraints, "", ""},
		{"calories empty", domain.FieldCalorieRange, "", ""},
		{"calories ok", domain.FieldCalorieRange, "400-600", ""},
		{"calories spaced", domain.FieldCalorieRange, " 400 - 600 ", MsgCalorieFormat},
		{"calories space before max", domain.FieldCalorieRange, "400 -600", MsgCalorieFormat},
		{"calories trailing space", domain.FieldCalorieRange, "400-600 ", MsgCalorieFormat},
		{"calories reversed", domain.FieldCalorieRange, "600-400", MsgCalorieOrder},
		{"calories equal", domain.FieldCalorieRange, "500-500", MsgCalorieOrder},
		{"calories one number", domain.FieldCalorieRange, "500", MsgCalorieFormat},
		{"calories negative", domain.FieldCalorieRange, "-5-100", MsgCalorieFormat},
		{"protein empty", domain.FieldProteinTarget, "", ""},
		{"protein ok", domain.FieldProteinTarget, "35.5", ""},
		{"protein zero", domain.FieldProteinTarget, "0", MsgProteinTarget},
		{"protein text", domain.FieldProteinTarget, "lots", MsgProteinTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Field(tt.field, tt.value)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.wantMsg, fe.Message)
		})
	}
}

func TestServingSizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("values inside [1,50] are accepted", prop.ForAll(
		func(n int) bool {
			return Field(domain.FieldServingSize, strconv.Itoa(n)) == nil
		},
		gen.IntRange(MinServings, MaxServings),
	))

	properties.Property("values below 1 are rejected", prop.ForAll(
		func(n int) bool {
			return Field(domain.FieldServingSize, strconv.Itoa(n)) != nil
		},
		gen.IntRange(-100000, 0),
	))

	properties.Property("values above 50 are rejected", prop.ForAll(
		func(n int) bool {
			return Field(domain.FieldServingSize, strconv.Itoa(n)) != nil
		},
		gen.IntRange(MaxServings+1, 100000),
	))

	properties.Property("non-numeric text is rejected", prop.ForAll(
		func(s string) bool {
			return Field(domain.FieldServingSize, s) != nil
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestCalorieRangeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("min-max accepted iff min < max", prop.ForAll(
		func(min, max int) bool {
			err := Field(domain.FieldCalorieRange, fmt.Sprintf("%d-%d", min, max))
			return (err == nil) == (min < max)
		},
		gen.IntRange(0, 5000),
		gen.IntRange(0, 5000),
	))

	properties.Property("text without a dash is rejected", prop.ForAll(
		func(s string) bool {
			return Field(domain.FieldCalorieRange, s) != nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.Property("any whitespace is rejected", prop.ForAll(
		func(min, delta, pos int, ws string) bool {
			parts := []string{strconv.Itoa(min), "-", strconv.Itoa(min + delta)}
			var b strings.Builder
			for i, p := range parts {
				if i == pos {
					b.WriteString(ws)
				}
				b.WriteString(p)
			}
			if pos == len(parts) {
				b.WriteString(ws)
			}
			return Field(domain.FieldCalorieRange, b.String()) != nil
		},
		gen.IntRange(0, 5000),
		gen.IntRange(1, 5000),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3).Map(func(i int) string { return []string{" ", "\t", "  ", " \t"}[i] }),
	))

	properties.Property("decimals are rejected", prop.ForAll(
		func(min, max int) bool {
			return Field(domain.FieldCalorieRange, fmt.Sprintf("%d.5-%d", min, max)) != nil
		},
		gen.IntRange(0, 500),
		gen.IntRange(501, 5000),
	))

	properties.TestingRun(t)
}

func TestStep(t *testing.T) {
	form := domain.IntakeForm{
		MealName:    "Spicy Chicken Curry",
		Description: "A spicy curry with vegetables and rice",
		ServingSize: "2",
	}
	assert.Empty(t, Step(domain.Step1, form))

	errs := Step(domain.Step2, form)
	assert.Equal(t, MsgMealTypeRequired, errs[domain.FieldMealType])
	assert.Equal(t, MsgSkillLevelRequired, errs[domain.FieldSkillLevel])

	form.MealType = "Dinner"
	form.SetControl(domain.CategorySkillLevel, "Intermediate")
	assert.True(t, StepValid(domain.Step2, form), "flavor must not gate step 2")

	form.CalorieRange = "900-100"
	assert.True(t, StepValid(domain.Step3, form), "step 3 never gates")
	assert.True(t, StepValid(domain.Step4, form))
	assert.Equal(t, MsgCalorieOrder, Form(form)[domain.FieldCalorieRange])
}

func TestStepOf(t *testing.T) {
	assert.Equal(t, domain.Step1, StepOf(domain.FieldServingSize))
	assert.Equal(t, domain.Step2, StepOf(domain.FieldFlavor))
	assert.Equal(t, domain.Step3, StepOf(domain.FieldCalorieRange))
}

func TestQuick(t *testing.T) {
	err := Quick("123456789")
	require.Error(t, err)
	assert.Contains(t, Message(err), "at least 10 characters")
	assert.NoError(t, Quick("1234567890"))
}
