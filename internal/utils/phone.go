package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// NormalizePhone trims separators and prefixes the country code when it is missing.
func NormalizePhone(phone, countryCode string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, countryCode) {
		return cleaned
	}
	return countryCode + strings.TrimPrefix(cleaned, "+")
}

// ValidPhone reports whether a normalized phone looks like an E.164 number.
func ValidPhone(phone string) bool {
	return e164Pattern.MatchString(phone)
}

// NationalNumber strips the country code from a normalized phone.
func NationalNumber(phone, countryCode string) string {
	return strings.TrimPrefix(phone, countryCode)
}

// GenerateNumericCode returns a zero-padded random code of the given length.
func GenerateNumericCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
