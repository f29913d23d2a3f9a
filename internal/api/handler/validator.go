package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/workforce/employee-directory/internal/core/domain"
)

var (
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("password", validatePassword)
	v.RegisterStructValidation(validateBirthDate, birthDateRequest{})

	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// validatePassword requires at least one uppercase letter and one digit.
func validatePassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return hasUpper.MatchString(s) && hasDigit.MatchString(s)
}

// validateBirthDate rejects parts that do not name a real date.
func validateBirthDate(sl validator.StructLevel) {
	bd := sl.Current().Interface().(birthDateRequest)
	day, errD := strconv.Atoi(bd.Day)
	month, errM := strconv.Atoi(bd.Month)
	year, errY := strconv.Atoi(bd.Year)
	if errD != nil || errM != nil || errY != nil {
		sl.ReportError(bd, "birthdate", "BirthDate", "realdate", "")
		return
	}
	if _, err := domain.NewBirthDate(day, month, year); err != nil {
		sl.ReportError(bd, "birthdate", "BirthDate", "realdate", "")
	}
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "notblank":
		return field + " cannot be blank"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s digits", field, fe.Param())
	case "number":
		return field + " must contain digits only"
	case "password":
		return field + " must contain at least one uppercase letter and one digit"
	case "realdate":
		return "birthdate must be a valid calendar date"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
