package normalize

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one record field that broke a record invariant.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var twoDecimalGPA = regexp.MustCompile(`^\d\.\d{2}$`)

// newValidator returns a validator that knows the record tags "gpa" and
// "gre" and reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("gpa", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !twoDecimalGPA.MatchString(s) {
			return false
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f <= 4.0
	})
	_ = v.RegisterValidation("gre", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n >= 0 && n <= MaxGREScore
	})
	return v
}

func validationErrors(err error) []ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: formatValidationError(e),
			Value:   e.Value(),
		})
	}
	return out
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in layout %s", e.Param())
	case "gpa":
		return "must be a two-decimal GPA between 0.00 and 4.00"
	case "gre":
		return fmt.Sprintf("must be a score between 0 and %d", MaxGREScore)
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
