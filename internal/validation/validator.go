// Package validation wraps a shared go-playground/validator instance and
// turns field errors into the single user-facing notice a form shows.
//
// Forms declare their constraints as struct tags and list the notices in
// priority order:
//
//	err := validation.Struct(&in,
//	    validation.Rule{Tag: "required", Message: "All fields are required."},
//	    validation.Rule{Tag: "eqfield", Message: "Passwords do not match."},
//	)
package validation

import (
	"errors"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	"vidstream/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the singleton validator instance
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("maxbytes", maxBytes)
	})
	return validate
}

// maxBytes bounds a string's encoded length, where the builtin max counts runes
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Rule maps a failed tag (optionally restricted to one field) to a notice
type Rule struct {
	Tag     string
	Field   string // struct field name; empty matches any field
	Message string
}

func (r Rule) matches(fe validator.FieldError) bool {
	return fe.Tag() == r.Tag && (r.Field == "" || fe.StructField() == r.Field)
}

// Struct validates s and returns a Validation error carrying the message of
// the first rule, in the given order, that any failed field matches
func Struct(s any, rules ...Rule) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.KindValidation, "Invalid input.", err)
	}

	for _, rule := range rules {
		for _, fe := range fieldErrs {
			if rule.matches(fe) {
				return apperr.Wrap(apperr.KindValidation, rule.Message, err)
			}
		}
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid input.", err)
}
