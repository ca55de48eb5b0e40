package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Draft is the payload for creating a game.
type Draft struct {
	Name            string `json:"name" validate:"required,notblank,max=255"`
	Description     string `json:"description" validate:"required,notblank,max=2000"`
	MinPlayers      *int   `json:"minPlayers" validate:"omitempty,gte=1"`
	MaxPlayers      *int   `json:"maxPlayers" validate:"omitempty,gte=1"`
	PlayTimeMinutes *int   `json:"playTimeMinutes" validate:"omitempty,gte=1"`
}

func (d Draft) Game() BoardGame {
	return BoardGame{
		Name:            d.Name,
		Description:     d.Description,
		MinPlayers:      cloneInt(d.MinPlayers),
		MaxPlayers:      cloneInt(d.MaxPlayers),
		PlayTimeMinutes: cloneInt(d.PlayTimeMinutes),
	}
}

// ValidationError maps JSON field names to a human readable problem.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid board game: " + strings.Join(parts, "; ")
}

var fieldLabels = map[string]string{
	"name":            "Game name",
	"description":     "Description",
	"minPlayers":      "Minimum players",
	"maxPlayers":      "Maximum players",
	"playTimeMinutes": "Play time",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(optionalValue[string], Optional[string]{})
	v.RegisterCustomTypeFunc(optionalValue[int], Optional[int]{})
	return v
}

// optionalValue exposes a set Optional as a pointer so `omitempty` only skips
// absent fields, never a present zero.
func optionalValue[T any](field reflect.Value) any {
	o, ok := field.Interface().(Optional[T])
	if !ok || !o.Set {
		return (*T)(nil)
	}
	v := o.Value
	return &v
}

func ValidateDraft(d Draft) error { return check(d) }

func ValidatePatch(p Patch) error { return check(p) }

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
