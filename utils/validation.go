// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// ValidatePhone reports whether a phone number is dialable: a bare
// 10-digit US number or an E.164-style number with optional + prefix.
func ValidatePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if cleaned == "" {
		return false
	}
	return phonePattern.MatchString(cleaned)
}
