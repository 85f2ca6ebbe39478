package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// EscapeLikePattern backslash-escapes the LIKE metacharacters so user input
// matches literally inside a LIKE pattern.
func EscapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func GenerateUniqueFilename() string {
	timestamp := time.Now().UnixNano()
	uniqueID := uuid.New()
	return fmt.Sprintf("%d_%s", timestamp, uniqueID)
}

// ProcessValidationErrors flattens gin binding errors into field:tag pairs.
func ProcessValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errorsMap[fieldError.Field()] = fieldError.Tag()
		}
	}
	return errorsMap
}
