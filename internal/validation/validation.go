// Package validation wraps go-playground/validator with the field rules used
// across the API and turns failures into field-level reason codes.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"quizhub/internal/apperr"
)

const (
	ReasonRequired       = "required"
	ReasonTooShort       = "too_short"
	ReasonTooLong        = "too_long"
	ReasonInvalidFormat  = "invalid_format"
	ReasonWeakPassword   = "weak_password"
	ReasonInvalidDate    = "invalid_date"
	ReasonInvalidCountry = "invalid_country"
	ReasonInvalidURL     = "invalid_url"
	ReasonInvalid        = "invalid"
)

const (
	dateLayout       = "2006-01-02"
	maxPasswordBytes = 72
)

var (
	usernameRe    = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	displayNameRe = regexp.MustCompile(`^[\p{L}\p{N} ._'-]+$`)
	phoneRe       = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
	dateRe        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var reasons = map[string]string{
	"required":         ReasonRequired,
	"min":              ReasonTooShort,
	"max":              ReasonTooLong,
	"email":            ReasonInvalidFormat,
	"username":         ReasonInvalidFormat,
	"display_name":     ReasonInvalidFormat,
	"phone":            ReasonInvalidFormat,
	"password":         ReasonWeakPassword,
	"bcrypt_len":       ReasonTooLong,
	"birth_date":       ReasonInvalidDate,
	"iso3166_1_alpha2": ReasonInvalidCountry,
	"http_url":         ReasonInvalidURL,
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v.validate, "username", matches(usernameRe))
	mustRegister(v.validate, "display_name", matches(displayNameRe))
	mustRegister(v.validate, "phone", matches(phoneRe))
	mustRegister(v.validate, "password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	mustRegister(v.validate, "bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	mustRegister(v.validate, "birth_date", func(fl validator.FieldLevel) bool {
		return v.validBirthDate(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// StrongPassword reports whether password has an upper-case letter, a digit
// and a special character.
func StrongPassword(password string) bool {
	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && digit && special
}

func (v *Validator) validBirthDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return false
	}
	return d.Year() >= 1900 && !d.After(v.now())
}

// Struct validates s. A failed validation is returned as an *apperr.Error
// holding one reason per field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if _, seen := details[field]; seen {
			continue
		}
		details[field] = reason(fe.Tag())
	}

	return apperr.Validation(details)
}

// fieldPath drops the root struct name, leaving e.g. "email" or
// "questions[0].options".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func reason(tag string) string {
	if r, ok := reasons[tag]; ok {
		return r
	}
	return ReasonInvalid
}
