package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrSurveyNotFound    = errors.New("survey not found")
	ErrNotOwner          = errors.New("survey belongs to another owner")
	ErrInvalidSurvey     = errors.New("invalid survey")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidExport     = errors.New("invalid export request")
)

var validate = validator.New()

// ValidationError carries per-field problems of a rejected request.
// errors.Is matches its Kind.
type ValidationError struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func newValidationError(kind error) *ValidationError {
	return &ValidationError{Kind: kind, Fields: map[string]string{}}
}

// validateStruct runs struct tag validation and converts failures into a
// ValidationError keyed by field namespace.
func validateStruct(kind error, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", kind, err)
	}
	ve := newValidationError(kind)
	for _, fe := range fieldErrs {
		ve.Fields[fe.Namespace()] = fe.Tag()
	}
	return ve
}
