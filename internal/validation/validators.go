package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("result_status", validateResultStatus); err != nil {
		panic(fmt.Sprintf("failed to register result_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("datetime_input", validateDatetimeInput); err != nil {
		panic(fmt.Sprintf("failed to register datetime_input validator: %v", err))
	}
}

// validateResultStatus validates that a string is a valid ResultStatus enum value
func validateResultStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.ResultStatus(value) {
	case models.ResultPending, models.ResultWon, models.ResultLost:
		return true
	default:
		return false
	}
}

// validateDatetimeInput validates the naive local datetime input shape
// "YYYY-MM-DDTHH:mm" with optional ":ss"
func validateDatetimeInput(fl validator.FieldLevel) bool {
	return ValidateDatetimeInput(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateResultStatus validates a ResultStatus string value
func ValidateResultStatus(value string) error {
	switch models.ResultStatus(value) {
	case models.ResultPending, models.ResultWon, models.ResultLost:
		return nil
	default:
		return fmt.Errorf("invalid result_status: %s (must be 'pending', 'won', or 'lost')", value)
	}
}

// ValidateDatetimeInput validates a naive local datetime string. Accepted
// shapes are "YYYY-MM-DDTHH:mm" and "YYYY-MM-DDTHH:mm:ss"; no timezone
// designator is allowed because storage records wall-clock local time.
func ValidateDatetimeInput(value string) error {
	if len(value) != 16 && len(value) != 19 {
		return fmt.Errorf("invalid datetime: %s (expected YYYY-MM-DDTHH:mm[:ss])", value)
	}
	for i, r := range value {
		switch i {
		case 4, 7:
			if r != '-' {
				return fmt.Errorf("invalid datetime: %s (expected '-' at position %d)", value, i)
			}
		case 10:
			if r != 'T' {
				return fmt.Errorf("invalid datetime: %s (expected 'T' separator)", value)
			}
		case 13, 16:
			if r != ':' {
				return fmt.Errorf("invalid datetime: %s (expected ':' at position %d)", value, i)
			}
		default:
			if r < '0' || r > '9' {
				return fmt.Errorf("invalid datetime: %s (unexpected character at position %d)", value, i)
			}
		}
	}
	return nil
}
