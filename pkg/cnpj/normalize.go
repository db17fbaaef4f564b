package cnpj

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Normalize strips punctuation from a CNPJ and validates the two check
// digits. Returns the bare 14-digit form.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 14 {
		return "", eris.Errorf("cnpj: expected 14 digits, got %d", len(digits))
	}
	if !validCheckDigits(digits) {
		return "", eris.Errorf("cnpj: invalid check digits in %s", digits)
	}
	return digits, nil
}

func validCheckDigits(digits string) bool {
	return checkDigit(digits, 12) == int(digits[12]-'0') &&
		checkDigit(digits, 13) == int(digits[13]-'0')
}

// checkDigit computes the verification digit over the first n digits using
// the official weight sequence (2..9 repeating, right to left).
func checkDigit(digits string, n int) int {
	sum := 0
	weight := 2
	for i := n - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}
