package guest

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aldea-dev/aldea/core"
)

var (
	mobilePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^09\d{9}$`),
		regexp.MustCompile(`^639\d{9}$`),
	}
	platePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z]{3}\d{4}$`),
		regexp.MustCompile(`^\d{3}[A-Z]{3}$`),
		regexp.MustCompile(`^[A-Z]{2}\d{4}$`),
		regexp.MustCompile(`^\d{4}[A-Z]{2}$`),
	}
	nonDigit = regexp.MustCompile(`\D`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report failures under the json field name the client sent
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("phmobile", func(fl validator.FieldLevel) bool {
		cleaned := nonDigit.ReplaceAllString(fl.Field().String(), "")
		for _, pattern := range mobilePatterns {
			if pattern.MatchString(cleaned) {
				return true
			}
		}
		return false
	})

	v.RegisterValidation("plateno", func(fl validator.FieldLevel) bool {
		cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(fl.Field().String()))
		for _, pattern := range platePatterns {
			if pattern.MatchString(cleaned) {
				return true
			}
		}
		return false
	})

	return v
}

// NormalizePlate uppercases a plate and strips separators, matching the
// stored representation.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(plate))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in the form " + fe.Param()
	case "phmobile":
		return "must be a valid mobile number (09XXXXXXXXX or +639XXXXXXXXX)"
	case "plateno":
		return "must be a valid plate number"
	default:
		return "is invalid"
	}
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]core.FieldError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields = append(fields, core.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return core.NewValidationError(fields...)
}

// validateVisitWindow enforces the scheduling rules: the start date must
// not be in the past and at most MaxAdvanceDays ahead, and the end date
// must not precede the start date. Dates are compared at day granularity.
func validateVisitWindow(startStr, endStr string, now time.Time) []core.FieldError {
	var fields []core.FieldError

	start, startErr := time.ParseInLocation(dateFormat, startStr, now.Location())
	end, endErr := time.ParseInLocation(dateFormat, endStr, now.Location())
	if startErr != nil || endErr != nil {
		// format failures are already reported by the datetime tag
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if start.Before(today) {
		fields = append(fields, core.FieldError{Field: "visitDateStart", Message: "cannot be in the past"})
	}
	if start.After(today.AddDate(0, 0, core.MaxAdvanceDays)) {
		fields = append(fields, core.FieldError{Field: "visitDateStart", Message: "cannot be more than 30 days in advance"})
	}
	if end.Before(start) {
		fields = append(fields, core.FieldError{Field: "visitDateEnd", Message: "must be on or after the start date"})
	}

	return fields
}
