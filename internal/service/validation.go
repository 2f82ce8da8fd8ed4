package service

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// NewValidator returns a validator with the application's custom tags.
// basic_email accepts word characters, dots and hyphens on both sides of the
// @ and requires a final dotted word label.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// rule maps one failed field/tag pair to a user message.
type rule struct {
	field   string
	tag     string
	message string
}

// firstViolation checks rules in order against a validator error and returns
// the first that matched. An empty field matches any field, an empty tag any
// tag.
func firstViolation(err error, rules []rule) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, r := range rules {
		for _, fe := range verrs {
			if (r.field == "" || r.field == fe.Field()) && (r.tag == "" || r.tag == fe.Tag()) {
				field := r.field
				if field == "" {
					field = fe.Field()
				}
				return &ValidationError{Field: field, Message: r.message}
			}
		}
	}
	return &ValidationError{Field: verrs[0].Field(), Message: "Invalid input."}
}
