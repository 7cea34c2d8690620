package util

import (
	"regexp"

	"github.com/dchest/uniuri"
)

// Subscribers are identified by a 12-digit msisdn in country-code form
// (2519XXXXXXXX). Handsets and web forms commonly submit the 10-digit
// local form (09XXXXXXXX) which is folded into the canonical form by
// replacing the trunk prefix with the country code.
const (
	PinLength = 6
)

var (
	nonDigitRx = regexp.MustCompile(`\D`)
	msisdnRx   = regexp.MustCompile(`^2519\d{8}$`)
	localRx    = regexp.MustCompile(`^09\d{8}$`)
	pinRx      = regexp.MustCompile(`^\d{6}$`)

	pinChars = []byte("0123456789")
)

// NormalizeMsisdn strips all non-digit characters and converts the result
// to country-code form. Returns an empty string for anything that matches
// neither the local nor the country-code pattern.
func NormalizeMsisdn(raw string) string {
	digits := nonDigitRx.ReplaceAllString(raw, "")
	switch {
	case localRx.MatchString(digits):
		return "251" + digits[1:]
	case msisdnRx.MatchString(digits):
		return digits
	}
	return ""
}

// IsValidMsisdn reports whether s is already in canonical country-code form
func IsValidMsisdn(s string) bool {
	return msisdnRx.MatchString(s)
}

// IsValidPin reports whether s has the canonical numeric PIN shape
func IsValidPin(s string) bool {
	return pinRx.MatchString(s)
}

// GeneratePin returns a fresh random numeric PIN
func GeneratePin() string {
	return uniuri.NewLenChars(PinLength, pinChars)
}
