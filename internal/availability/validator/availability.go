package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
	"masterbook/pkg/timegrid"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

var dayNames = [model.DaysPerWeek]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}

	log.Info("Availability validator initialized successfully")

	return &AvailabilityValidator{
		validate: v,
		logger:   log,
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := timegrid.ToMinutes(fl.Field().String())
	return err == nil
}

// Validate checks both the struct tags and the structural rules the tags
// cannot express: ranges ordered with start < end, no overlap within a day,
// and exception keys shaped as calendar dates.
func (v *AvailabilityValidator) Validate(av *model.Availability) error {
	if err := v.validate.Struct(av); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var structural ValidationErrors

	for day, ranges := range av.WeekTemplate {
		structural = append(structural, checkRanges(fmt.Sprintf("weekTemplate.%s", dayNames[day]), ranges)...)
	}

	for date, ranges := range av.Exceptions {
		field := fmt.Sprintf("exceptions.%s", date)
		if _, err := timegrid.ParseDate(date); err != nil {
			structural = append(structural, ValidationError{
				Field:   field,
				Message: "exception date must be in YYYY-MM-DD format",
			})
			continue
		}
		structural = append(structural, checkRanges(field, ranges)...)
	}

	if len(structural) > 0 {
		return structural
	}
	return nil
}

func checkRanges(field string, ranges []model.TimeRange) ValidationErrors {
	var errs ValidationErrors

	type span struct{ start, end int }
	spans := make([]span, 0, len(ranges))

	for i, r := range ranges {
		start, err := timegrid.ToMinutes(r.Start)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].start", field, i),
				Message: "time must be in HH:MM 24-hour format",
			})
			continue
		}
		end, err := timegrid.ToMinutes(r.End)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].end", field, i),
				Message: "time must be in HH:MM 24-hour format",
			})
			continue
		}
		if start >= end {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "range end must be after range start",
			})
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}

	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "ranges within a day must not overlap",
				})
				return errs
			}
		}
	}

	return errs
}

func (v *AvailabilityValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
