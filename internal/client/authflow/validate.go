package authflow

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
)

const MinPasswordLength = 8

const (
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgShortPassword    = "Password must be at least 8 characters"
	MsgNameRequired     = "Full name is required"
	MsgInvalidPhone     = "Enter a valid 10-digit mobile number"
	MsgPasswordMismatch = "Passwords do not match"
	MsgCodeRequired     = "Please enter the OTP"
	MsgShortName        = "Name must be at least 2 characters"
	MsgProfilePhone     = "Enter valid 10-digit phone number"
)

// ValidationError is a local input error; Message is shown as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Input is what the form collects. Fields a mode does not use are ignored.
type Input struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

type check struct {
	field string
	value any
	rules []validation.Rule
}

// Validate checks in for mode and returns the first failure as a
// *ValidationError, or nil.
func Validate(mode Mode, in Input) error {
	checks := []check{
		{"email", in.Email, []validation.Rule{
			validation.Required.Error(MsgInvalidEmail),
			validation.Match(emailRegex).Error(MsgInvalidEmail),
		}},
	}

	if mode != ModeForgotPassword {
		checks = append(checks, check{"password", in.Password, []validation.Rule{
			validation.Required.Error(MsgShortPassword),
			validation.RuneLength(MinPasswordLength, 0).Error(MsgShortPassword),
		}})
	}

	if mode == ModeSignup {
		checks = append(checks,
			check{"name", in.Name, []validation.Rule{
				validation.By(notBlank(MsgNameRequired)),
			}},
			check{"phone", in.Phone, []validation.Rule{
				validation.Required.Error(MsgInvalidPhone),
				validation.Match(phoneRegex).Error(MsgInvalidPhone),
			}},
			check{"confirmPassword", in.ConfirmPassword, []validation.Rule{
				validation.By(stringEquals(in.Password, MsgPasswordMismatch)),
			}},
		)
	}

	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return &ValidationError{Field: c.field, Message: err.Error()}
		}
	}
	return nil
}

// ValidateCode rejects an empty one-time code.
func ValidateCode(code string) error {
	if err := validation.Validate(code, validation.By(notBlank(MsgCodeRequired))); err != nil {
		return &ValidationError{Field: "code", Message: err.Error()}
	}
	return nil
}

// ValidateProfile checks the fields a profile edit sets; nil fields are
// left alone.
func ValidateProfile(patch models.IdentityPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		err := validation.Validate(name,
			validation.Required.Error(MsgShortName),
			validation.RuneLength(2, 0).Error(MsgShortName),
		)
		if err != nil {
			return &ValidationError{Field: "name", Message: err.Error()}
		}
	}
	if patch.Phone != nil {
		err := validation.Validate(*patch.Phone,
			validation.Required.Error(MsgProfilePhone),
			validation.Match(phoneRegex).Error(MsgProfilePhone),
		)
		if err != nil {
			return &ValidationError{Field: "phone", Message: err.Error()}
		}
	}
	return nil
}

// ValidatePasswordChange only requires the confirmation to match; the
// server judges the new password.
func ValidatePasswordChange(newPassword, confirm string) error {
	if err := validation.Validate(confirm, validation.By(stringEquals(newPassword, MsgPasswordMismatch))); err != nil {
		return &ValidationError{Field: "confirmPassword", Message: err.Error()}
	}
	return nil
}

func notBlank(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func stringEquals(str, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msg)
		}
		return nil
	}
}

// IsValidationError reports whether err is a local input error.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
