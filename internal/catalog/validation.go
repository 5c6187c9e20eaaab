package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// complexlist: every pipe-separated segment must be a JSON object.
	_ = v.RegisterValidation("complexlist", func(fl validator.FieldLevel) bool {
		_, dropped := csvcodec.DeserializeComplexCount(fl.Field().String())
		return dropped == 0
	})
	return v
}

// FieldError is a validation failure on one form field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// ValidationErrors collects every failing field of a form submission.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Label + " " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// For returns the message for a field, or "".
func (e ValidationErrors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// ValidateForm checks submitted form values against the resource's field
// rules and converts them into a record body. Checkbox fields are true when
// present with any value other than "false".
func ValidateForm(res Resource, values map[string]string) (Record, error) {
	rec := make(Record, len(res.Fields))
	var errs ValidationErrors

	for _, f := range res.Fields {
		raw := strings.TrimSpace(values[f.Name])

		if f.Rules != "" {
			if err := validate.Var(raw, f.Rules); err != nil {
				errs = append(errs, FieldError{Field: f.Name, Label: f.Label, Message: describe(err)})
				continue
			}
		}

		rec[f.Name] = formValue(f, raw)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

func formValue(f FieldSpec, raw string) any {
	switch f.Type {
	case FieldBool:
		return raw != "" && raw != "false"
	case FieldNumber:
		if raw == "" {
			return nil
		}
		return json.Number(raw)
	case FieldComplex:
		return csvcodec.DeserializeComplex(raw)
	default:
		return raw
	}
}

// FormValues renders a record back into form values for editing.
func FormValues(res Resource, rec Record) map[string]string {
	values := make(map[string]string, len(res.Fields))
	for _, f := range res.Fields {
		v := rec[f.Name]
		if f.Type == FieldComplex {
			values[f.Name] = csvcodec.SerializeComplex(complexItems(v))
			continue
		}
		values[f.Name] = csvcodec.Stringify(v)
	}
	return values
}

// describe turns a validator error into a short message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must be a number"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hexcolor":
		return "must be a hex color such as #aabbcc"
	case "lowercase":
		return "must be lowercase"
	case "complexlist":
		return "contains entries that are not JSON objects"
	default:
		return "is invalid"
	}
}
