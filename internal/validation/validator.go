// Package validation holds request validation rules shared by services and handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"respawn/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "halfstep", func(fl validator.FieldLevel) bool {
			return models.IsValidRating(fl.Field().Float())
		})
		mustRegister(v, "username", func(fl validator.FieldLevel) bool {
			return ValidateUsername(fl.Field().String()) == nil
		})
		mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
			return ValidateSlug(fl.Field().String()) == nil
		})
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		mustRegister(v, "nonemptyitems", nonEmptyItems)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// nonEmptyItems requires a string slice with at least one item and no blank items.
func nonEmptyItems(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Slice || f.Len() == 0 {
		return false
	}
	for i := 0; i < f.Len(); i++ {
		if strings.TrimSpace(f.Index(i).String()) == "" {
			return false
		}
	}
	return true
}

// Struct validates v and converts failures into a VALIDATION_ERROR AppError.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return models.NewFieldValidationError(fields)
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", f)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", f)
	case "halfstep":
		return fmt.Sprintf("%s must be between 1 and 10 in steps of 0.5", f)
	case "username":
		return fmt.Sprintf("%s must be 3-30 characters of letters, numbers, underscores or hyphens", f)
	case "slug":
		return fmt.Sprintf("%s must contain only lowercase letters, numbers and hyphens", f)
	case "strongpassword":
		return fmt.Sprintf("%s must be 8-128 characters with an uppercase letter, a lowercase letter and a digit", f)
	case "nonemptyitems":
		return fmt.Sprintf("%s must contain at least one non-empty item", f)
	default:
		return fmt.Sprintf("%s is invalid", f)
	}
}
