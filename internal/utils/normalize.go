package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	dobPattern   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	otpPattern   = regexp.MustCompile(`\b\d{6}\b`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// dobFormats are tried in this fixed order; ambiguous dates like 03/04/1990
// resolve as US month/day before the European attempt is ever tried.
var dobFormats = []string{
	"2006-01-02", // ISO
	"01/02/2006", // MM/DD/YYYY
	"01-02-2006", // MM-DD-YYYY
	"02/01/2006", // DD/MM/YYYY
}

// ExtractPhone returns the first phone-shaped token in the message, or ""
func ExtractPhone(message string) string {
	return phonePattern.FindString(message)
}

// ExtractDOB returns the first date-shaped token in the message, or ""
func ExtractDOB(message string) string {
	return dobPattern.FindString(message)
}

// ExtractOTPCode returns the first standalone 6-digit token, or ""
func ExtractOTPCode(message string) string {
	return otpPattern.FindString(message)
}

// NormalizePhoneE164 normalizes a US phone number to E.164. Accepts 10
// digits (country code assumed) or 11 digits with a leading 1; any other
// digit count is a normalization failure.
func NormalizePhoneE164(input string) (string, error) {
	digits := nonDigit.ReplaceAllString(input, "")

	switch {
	case len(digits) == 10:
		digits = "1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		// already carries the country code
	default:
		return "", fmt.Errorf("invalid phone number format: %q", input)
	}

	return "+" + digits, nil
}

// ParseDOB parses a date of birth, trying each accepted format in order and
// returning the first match as midnight clinic time.
func ParseDOB(input string) (time.Time, error) {
	for _, layout := range dobFormats {
		if t, err := time.ParseInLocation(layout, input, ClinicTZ); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", input)
}
