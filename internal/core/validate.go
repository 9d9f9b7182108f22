package core

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Input limits.
const (
	MaxUsernameLen = 100
	MaxPasswordLen = 128
	MaxTitleLen    = 100
	MaxContentLen  = 255
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// Validator checks payload fields and renders failures as per-field messages.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a validator with the notblank and username rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// mustRegister panics on a bad registration, like validator does for unknown tags.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// CheckString validates one optional string field against tag.
// A nil value is reported as missing only when required is set.
func (val *Validator) CheckString(errs FieldErrors, field string, value *string, required bool, tag string) {
	if value == nil {
		if required {
			errs.Add(field, MsgFieldRequired)
		}
		return
	}
	if tag == "" {
		return
	}

	err := val.v.Var(*value, tag)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(field, "Invalid value.")
		return
	}
	for _, fe := range verrs {
		errs.Add(field, fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field may not be blank."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Invalid value."
	}
}

// Validation tags for the writable fields.
var (
	TagUsername = fmt.Sprintf("notblank,max=%d,username", MaxUsernameLen)
	TagPassword = fmt.Sprintf("notblank,max=%d", MaxPasswordLen)
	TagTitle    = fmt.Sprintf("notblank,max=%d", MaxTitleLen)
	TagContent  = fmt.Sprintf("notblank,max=%d", MaxContentLen)
	// TagNotBlank only rejects empty and whitespace-only values.
	TagNotBlank = "notblank"
	// TagRecipient is loose, unknown usernames are rejected on lookup.
	TagRecipient = TagNotBlank
)
