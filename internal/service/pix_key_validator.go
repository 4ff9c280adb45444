package service

import (
	"regexp"
	"strings"

	"pix-wallet/internal/core/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{10,14}$`)
)

// FormatValidator implements ports.PixKeyValidator with pattern checks for
// EMAIL and PHONE values. EVP values are generated, so any non-blank value passes.
type FormatValidator struct{}

// NewFormatValidator creates a new FormatValidator.
func NewFormatValidator() FormatValidator {
	return FormatValidator{}
}

// Valid reports whether value is well formed for keyType.
func (FormatValidator) Valid(keyType domain.PixKeyType, value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	switch keyType {
	case domain.PixKeyTypeEmail:
		return emailPattern.MatchString(value)
	case domain.PixKeyTypePhone:
		return phonePattern.MatchString(value)
	case domain.PixKeyTypeEVP:
		return true
	default:
		return false
	}
}
