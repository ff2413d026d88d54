package submit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/validate"
)

//go:embed request.schema.json
var requestSchema string

const schemaURL = "https://ottointake.local/schemas/generation-request.json"

// InvalidFormError is returned when the form fails local validation. The
// request is never sent.
type InvalidFormError struct {
	Errors domain.FieldErrors
}

func (e *InvalidFormError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, f := range domain.Fields {
		if msg, ok := e.Errors[f]; ok {
			parts = append(parts, msg)
		}
	}
	return "form is not ready: " + strings.Join(parts, "; ")
}

func (e *InvalidFormError) Unwrap() error { return domain.ErrStepInvalid }

// BuildRequest validates the form and shapes the outbound request for the
// mode. Guided mode sends every field with empty optionals as null, the
// skill level as its own field and the remaining flavor controls in
// flavor_controls. Quick mode sends only the description.
func BuildRequest(mode domain.Mode, form domain.IntakeForm, cat *catalog.Catalog) (domain.GenerationRequest, error) {
	if mode == domain.ModeQuick {
		if err := validate.Quick(form.Description); err != nil {
			return domain.GenerationRequest{}, &InvalidFormError{
				Errors: domain.FieldErrors{domain.FieldDescription: validate.Message(err)},
			}
		}
		return domain.GenerationRequest{Description: strings.TrimSpace(form.Description)}, nil
	}

	if errs := validate.Form(form); len(errs) > 0 {
		return domain.GenerationRequest{}, &InvalidFormError{Errors: errs}
	}

	req := domain.GenerationRequest{
		MealName:          optional(form.MealName),
		Description:       strings.TrimSpace(form.Description),
		MealType:          optional(form.MealType),
		FlavorControls:    flavorControls(form, cat),
		CookingSkillLevel: optional(form.Control(domain.CategorySkillLevel)),
		TimeConstraints:   optional(form.TimeConstraints),
	}
	if n, ok := validate.ParseServingSize(form.ServingSize); ok {
		req.ServingSize = &n
	}
	if strings.TrimSpace(form.CalorieRange) != "" {
		lo, hi, err := validate.ParseCalorieRange(form.CalorieRange)
		if err != nil {
			return domain.GenerationRequest{}, err
		}
		r := fmt.Sprintf("%d-%d", lo, hi)
		req.CalorieRange = &r
	}
	if p, ok := validate.ParseProteinTarget(form.ProteinTargetPerServing); ok {
		req.ProteinTargetPerServing = &p
	}
	return req, nil
}

// flavorControls keeps the non-skill categories the meal type defines.
// Returns nil when none is set so the field serialises as null.
func flavorControls(form domain.IntakeForm, cat *catalog.Catalog) map[string]string {
	var mt *catalog.MealType
	if cat != nil {
		if m, ok := cat.Lookup(form.MealType); ok {
			mt = &m
		}
	}
	var out map[string]string
	for key, value := range form.FlavorControls {
		value = strings.TrimSpace(value)
		if key == domain.CategorySkillLevel || value == "" {
			continue
		}
		if mt != nil && key != domain.CategoryFlavor {
			if _, defined := mt.Category(key); !defined {
				continue
			}
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = value
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Contract checks requests against the generation request JSON schema.
type Contract struct {
	schema *jsonschema.Schema
}

// NewContract compiles the embedded request schema.
func NewContract() (*Contract, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(requestSchema)); err != nil {
		return nil, fmt.Errorf("loading request schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}
	return &Contract{schema: schema}, nil
}

// Check validates the JSON form of the request.
func (c *Contract) Check(req domain.GenerationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return fmt.Errorf("request violates the generation contract: %w", err)
	}
	return nil
}
