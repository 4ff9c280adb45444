package dto

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"pix-wallet/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("pix_key_type", validatePixKeyType)
		_ = v.RegisterValidation("settlement_status", validateSettlementStatus)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validatePixKeyType accepts EMAIL, PHONE and EVP.
func validatePixKeyType(fl validator.FieldLevel) bool {
	return domain.PixKeyType(fl.Field().String()).IsValid()
}

// validateSettlementStatus accepts only the statuses an event may propose.
func validateSettlementStatus(fl validator.FieldLevel) bool {
	switch domain.TransferStatus(fl.Field().String()) {
	case domain.TransferStatusConfirmed, domain.TransferStatusRejected:
		return true
	}
	return false
}

// SanitizeStruct trims whitespace and drops control characters from every
// exported string field (including *string) of a struct pointer. Values are
// not HTML-escaped since aliases must round-trip byte for byte.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
