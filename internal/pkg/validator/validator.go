package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Promotion kind validation
	validate.RegisterValidation("promo_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		for _, k := range []string{"seasonal", "admin", "tiered_volume"} {
			if kind == k {
				return true
			}
		}
		return false
	})

	// Promotion scope validation
	validate.RegisterValidation("promo_scope", func(fl validator.FieldLevel) bool {
		scope := fl.Field().String()
		for _, s := range []string{"global", "mall", "retailer"} {
			if scope == s {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "promo_kind":
			errors[field] = "Invalid kind. Must be: seasonal, admin, or tiered_volume"
		case "promo_scope":
			errors[field] = "Invalid scope. Must be: global, mall, or retailer"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
