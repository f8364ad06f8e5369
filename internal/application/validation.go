package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/example/campus-reservation/internal/calendar"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// inputValidator returns the shared validator. Field errors are reported under
// the name in each field's `field` tag.
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("field"); name != "" && name != "-" {
				return name
			}
			return strings.ToLower(fld.Name)
		})
		_ = v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
			_, err := calendar.ParseDate(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// validateStruct runs the tag rules of input and converts violations into a
// ValidationError. It returns an empty ValidationError when input is valid.
func validateStruct(input any) *ValidationError {
	vErr := &ValidationError{}
	err := inputValidator().Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("_", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldMessage(fe))
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "civildate":
		return field + " must be formatted as YYYY-MM-DD"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// validateReservationInput checks tag rules and the hour ordering of a
// reservation request.
func validateReservationInput(userID string, input ReservationInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(userID) == "" {
		vErr.add("user_id", "user_id is required")
	}
	vErr.merge(validateStruct(input))
	validateHourOrder(vErr, input.StartHour, input.EndHour)
	return vErr
}

// validateBlackoutRuleInput checks tag rules, hour ordering and the exclusive
// date/day_of_week selector of a blackout rule.
func validateBlackoutRuleInput(input BlackoutRuleInput) *ValidationError {
	vErr := validateStruct(input)
	validateHourOrder(vErr, input.StartHour, input.EndHour)
	if strings.TrimSpace(input.Date) != "" && input.DayOfWeek != nil {
		vErr.add("day_of_week", "date and day_of_week cannot both be set")
	}
	return vErr
}

func validateHourOrder(vErr *ValidationError, start, end *int) {
	if start == nil || end == nil {
		return
	}
	if _, bad := vErr.FieldErrors["start_hour"]; bad {
		return
	}
	if _, bad := vErr.FieldErrors["end_hour"]; bad {
		return
	}
	if *start >= *end {
		vErr.add("end_hour", "end_hour must be after start_hour")
	}
}

// validateKeyManagerInput checks the tag rules of a new key manager after
// trimming surrounding whitespace.
func validateKeyManagerInput(input *KeyManagerInput) *ValidationError {
	input.Name = strings.TrimSpace(input.Name)
	input.Contact = strings.TrimSpace(input.Contact)
	return validateStruct(*input)
}

// validateKeyManagerUpdate checks the tag rules of a key manager update after
// trimming the supplied strings. An update changing nothing is rejected.
func validateKeyManagerUpdate(update *KeyManagerUpdate) *ValidationError {
	for _, field := range []*string{update.Name, update.Contact} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	vErr := &ValidationError{}
	if update.Name != nil && *update.Name == "" {
		vErr.add("name", "name is required")
	}
	if update.Contact != nil && *update.Contact == "" {
		vErr.add("contact", "contact is required")
	}
	vErr.merge(validateStruct(*update))
	if update.Name == nil && update.Contact == nil && update.Active == nil {
		vErr.add("_", "no fields to update")
	}
	return vErr
}
