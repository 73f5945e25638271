package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cobach/sia-alumnos-api/internal/dto"
)

// CURPRule is the shape of a CURP: 18 uppercase letters or digits.
const CURPRule = "len=18,alphanum,uppercase"

var (
	bloodTypePattern = regexp.MustCompile(`^(A|B|AB|O)[+-]$`)
	shapes           = validator.New()
)

// New returns a validator with the custom tags used by the student forms.
// Field names in errors are taken from the form tag.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})

	must(validate.RegisterValidation("boolflag", func(fl validator.FieldLevel) bool {
		_, ok := ParseFlag(fl.Field().String())
		return ok
	}))
	must(validate.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		return bloodTypePattern.MatchString(fl.Field().String())
	}))
	must(validate.RegisterValidation("intrange", func(fl validator.FieldLevel) bool {
		low, high, err := parseRange(fl.Param())
		if err != nil {
			return false
		}
		value, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && value >= low && value <= high
	}))

	return validate
}

// ParseFlag accepts 0/1 and true/false in any case.
func ParseFlag(raw string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	default:
		return false, false
	}
}

// IsCURP reports whether value has the shape of a CURP.
func IsCURP(value string) bool {
	return shapes.Var(value, CURPRule) == nil
}

// Check validates a single value against tag and reports the failure under field.
// It returns nil when the value passes.
func Check(validate *validator.Validate, field, value, tag string) *dto.FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return &dto.FieldError{Field: field, Message: message(validationErrors[0])}
	}
	return &dto.FieldError{Field: field, Message: "valor inválido"}
}

// FieldErrors converts validator failures into the response error list.
// It returns nil when err carries no field failures.
func FieldErrors(err error) []dto.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	result := make([]dto.FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		result = append(result, dto.FieldError{
			Field:   fieldErr.Field(),
			Message: message(fieldErr),
		})
	}
	return result
}

func message(fieldErr validator.FieldError) string {
	param := fieldErr.Param()
	switch fieldErr.Tag() {
	case "required":
		return "es obligatorio"
	case "len":
		return fmt.Sprintf("debe tener exactamente %s caracteres", param)
	case "max":
		return fmt.Sprintf("debe tener como máximo %s caracteres", param)
	case "min":
		return fmt.Sprintf("debe tener al menos %s caracteres", param)
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", strings.ReplaceAll(param, " ", ", "))
	case "email":
		return "debe ser un correo electrónico válido"
	case "uuid", "uuid_rfc4122":
		return "debe ser un identificador GUID válido"
	case "datetime":
		return "debe ser una fecha con formato AAAA-MM-DD"
	case "boolflag":
		return "debe ser 0, 1, true o false"
	case "number":
		return "debe contener solo dígitos"
	case "alphanum":
		return "debe contener solo letras o dígitos"
	case "uppercase":
		return "debe estar en mayúsculas"
	case "bloodtype":
		return "debe ser un tipo de sangre válido (A, B, AB u O seguido de + o -)"
	case "intrange":
		return fmt.Sprintf("debe ser un número entre %s", strings.Replace(param, "-", " y ", 1))
	default:
		return fmt.Sprintf("no cumple la regla %s", fieldErr.Tag())
	}
}

func parseRange(param string) (int, int, error) {
	parts := strings.SplitN(param, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range %q", param)
	}
	low, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	high, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
