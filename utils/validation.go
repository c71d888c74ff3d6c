// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Allows + prefix followed by 7-15 digits
	return phonePattern.MatchString(cleaned)
}

// FormatPhoneE164 normalises a phone number to E.164. Ten-digit national
// numbers get countryCode prepended; numbers already carrying a + are kept.
func FormatPhoneE164(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return "+" + digitsOnly(phone)
	}
	digits := digitsOnly(phone)
	if digits == "" {
		return ""
	}
	countryCode = strings.TrimPrefix(countryCode, "+")
	switch {
	case len(digits) == 10 && countryCode != "":
		return "+" + countryCode + digits
	default:
		return "+" + digits
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
