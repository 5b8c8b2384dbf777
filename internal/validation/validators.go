package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/focus-board/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	register("priority", validatePriority)
	register("energy", validateEnergy)
	register("staging_source", validateStagingSource)
	register("recurrence_pattern", validateRecurrencePattern)
}

func register(tag string, fn validator.Func) {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).IsValid()
}

func validateEnergy(fl validator.FieldLevel) bool {
	return models.EnergyLevel(fl.Field().String()).IsValid()
}

func validateStagingSource(fl validator.FieldLevel) bool {
	return models.StagedTaskSource(fl.Field().String()).IsValid()
}

func validateRecurrencePattern(fl validator.FieldLevel) bool {
	switch models.RecurrencePattern(fl.Field().String()) {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceCustom:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// FirstError renders the first field error of a validation failure
func FirstError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return fmt.Sprintf("Validation failed: %s must satisfy '%s'", fe.Namespace(), fe.Tag())
	}
	return "Validation failed"
}
