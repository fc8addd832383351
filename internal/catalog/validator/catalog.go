package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
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

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	return &CatalogValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *CatalogValidator) ValidateCategory(c *model.Category) error {
	return v.translate(v.validate.Struct(c))
}

func (v *CatalogValidator) ValidateService(s *model.Service) error {
	return v.translate(v.validate.Struct(s))
}

func (v *CatalogValidator) translate(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var validationErrors ValidationErrors
	for _, e := range validationErrs {
		message := e.Error()

		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   e.Field(),
			Message: message,
		})
	}
	return validationErrors
}
