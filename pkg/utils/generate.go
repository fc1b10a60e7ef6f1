package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// ==================== OTP ====================

// GenerateOTP returns a numeric code of the given length drawn uniformly from crypto/rand.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 4
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

// ==================== TEMPORARY PASSWORD ====================

const (
	tempPasswordLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	tempPasswordDigits  = "0123456789"
)

// GenerateTempPassword builds a password of the form "AbC@123" (three letters, '@', three digits).
func GenerateTempPassword() (string, error) {
	var b strings.Builder
	b.Grow(7)

	for i := 0; i < 3; i++ {
		c, err := randomChar(tempPasswordLetters)
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
	}
	b.WriteByte('@')
	for i := 0; i < 3; i++ {
		c, err := randomChar(tempPasswordDigits)
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
	}

	return b.String(), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return alphabet[n.Int64()], nil
}

// ==================== PHONE ====================

// NormalizePhone prefixes numbers lacking a '+' with the configured country code.
func NormalizePhone(phone, defaultCountryCode string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") || defaultCountryCode == "" {
		return phone
	}
	return defaultCountryCode + phone
}
