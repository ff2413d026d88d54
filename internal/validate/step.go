package validate

import "github.com/hammamikhairi/ottointake/internal/domain"

// stepFields lists the fields that gate each step. Step 3 is all-optional
// and never blocks Next; its fields are still checked before submission.
var stepFields = map[domain.Step][]domain.Field{
	domain.Step1: {domain.FieldMealName, domain.FieldDescription, domain.FieldServingSize},
	domain.Step2: {domain.FieldMealType, domain.FieldSkillLevel},
}

// optionalFields are checked only when they carry a value.
var optionalFields = []domain.Field{
	domain.FieldCalorieRange,
	domain.FieldProteinTarget,
}

// StepFields returns the fields that gate the given step.
func StepFields(step domain.Step) []domain.Field {
	return stepFields[step]
}

// FieldsOn returns every field shown on a step, gating or not.
func FieldsOn(step domain.Step) []domain.Field {
	switch step {
	case domain.Step1:
		return stepFields[domain.Step1]
	case domain.Step2:
		return []domain.Field{domain.FieldMealType, domain.FieldSkillLevel, domain.FieldFlavor}
	case domain.Step3:
		return []domain.Field{domain.FieldTimeConstraints, domain.FieldCalorieRange, domain.FieldProteinTarget}
	default:
		return nil
	}
}

// StepOf returns the step that shows the field.
func StepOf(field domain.Field) domain.Step {
	for step := domain.Step1; step <= domain.Step3; step++ {
		for _, f := range FieldsOn(step) {
			if f == field {
				return step
			}
		}
	}
	return domain.Step4
}

// Step returns the errors that block leaving the given step. Step 4 is
// valid only when steps 1 and 2 are.
func Step(step domain.Step, form domain.IntakeForm) domain.FieldErrors {
	errs := domain.FieldErrors{}
	fields := stepFields[step]
	if step == domain.Step4 {
		fields = append(append([]domain.Field{}, stepFields[domain.Step1]...), stepFields[domain.Step2]...)
	}
	for _, f := range fields {
		if err := Field(f, form.Value(f)); err != nil {
			errs[f] = Message(err)
		}
	}
	return errs
}

// StepValid reports whether the step's gating fields all pass.
func StepValid(step domain.Step, form domain.IntakeForm) bool {
	return len(Step(step, form)) == 0
}

// Form checks every gating field and every optional field that carries a
// value. An empty result means the form can be submitted.
func Form(form domain.IntakeForm) domain.FieldErrors {
	errs := Step(domain.Step4, form)
	for _, f := range optionalFields {
		if err := Field(f, form.Value(f)); err != nil {
			errs[f] = Message(err)
		}
	}
	return errs
}

// Quick checks the free-text description of quick mode.
func Quick(description string) error {
	return Field(domain.FieldDescription, description)
}
