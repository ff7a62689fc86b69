package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError collects every field rejected for a single request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError holding a single field error.
func Invalid(field, message, kind string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message, Type: kind}}}
}

// OptionalString tracks whether a JSON field was present at all, so that an
// explicit null can be told apart from an omitted key.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// TaskCreate is the request body for creating a task.
type TaskCreate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TaskUpdate is the request body for a partial task update.
type TaskUpdate struct {
	Title       OptionalString `json:"title"`
	Description OptionalString `json:"description"`
}

// taskFields carries trimmed values through the length rules.
type taskFields struct {
	Title       *string `json:"title" validate:"omitnil,max=200"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var (
	errTitleMissing = FieldError{Field: "body.title", Message: "Field required", Type: "missing"}
	errTitleBlank   = FieldError{Field: "body.title", Message: "Value error, Title cannot be empty or whitespace only", Type: "value_error"}
	errTitleNull    = FieldError{Field: "body.title", Message: "Value error, Title cannot be null", Type: "value_error"}
)

// Validate trims and checks a create request.
func (in TaskCreate) Validate() (NewTask, error) {
	var (
		errs   []FieldError
		fields taskFields
	)

	if in.Title == nil {
		errs = append(errs, errTitleMissing)
	} else if title := strings.TrimSpace(*in.Title); title == "" {
		errs = append(errs, errTitleBlank)
	} else {
		fields.Title = &title
	}
	fields.Description = normalizeDescription(in.Description)

	errs = append(errs, checkLengths(fields)...)
	if len(errs) > 0 {
		return NewTask{}, &ValidationError{Errors: errs}
	}
	return NewTask{Title: *fields.Title, Description: fields.Description}, nil
}

// Validate trims and checks an update request. Only supplied fields end up
// in the returned changes.
func (in TaskUpdate) Validate() (TaskChanges, error) {
	var (
		errs    []FieldError
		fields  taskFields
		changes TaskChanges
	)

	if in.Title.Set {
		switch {
		case in.Title.Value == nil:
			errs = append(errs, errTitleNull)
		case strings.TrimSpace(*in.Title.Value) == "":
			errs = append(errs, errTitleBlank)
		default:
			title := strings.TrimSpace(*in.Title.Value)
			fields.Title = &title
		}
	}
	if in.Description.Set {
		changes.DescriptionSet = true
		fields.Description = normalizeDescription(in.Description.Value)
	}

	errs = append(errs, checkLengths(fields)...)
	if len(errs) > 0 {
		return TaskChanges{}, &ValidationError{Errors: errs}
	}
	changes.Title = fields.Title
	changes.Description = fields.Description
	return changes, nil
}

// normalizeDescription trims the value; blank descriptions become absent.
func normalizeDescription(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func checkLengths(fields taskFields) []FieldError {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error(), Type: "value_error"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := "body." + fe.Field()
		switch fe.Tag() {
		case "max":
			out = append(out, FieldError{
				Field:   field,
				Message: fmt.Sprintf("String should have at most %s characters", fe.Param()),
				Type:    "string_too_long",
			})
		default:
			out = append(out, FieldError{Field: field, Message: fe.Error(), Type: fe.Tag()})
		}
	}
	return out
}

// DecodeError converts a request body decoding failure into field errors.
func DecodeError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return Invalid("body", "Field required", "missing")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return Invalid("body", "Input should be a valid dictionary", "model_attributes_type")
		}
		return Invalid("body."+typeErr.Field, "Input should be a valid string", "string_type")
	default:
		return Invalid("body", "JSON decode error", "json_invalid")
	}
}
