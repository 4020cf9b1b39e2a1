package utils

import (
	"fmt"
	"strings"
)

// CIKLength is the zero-padded width EDGAR uses in URLs.
const CIKLength = 10

// NormalizeCIK validates a central index key and pads it to ten digits.
// Surrounding whitespace and a leading "CIK" prefix are accepted.
func NormalizeCIK(cik string) (string, error) {
	s := strings.TrimSpace(strings.ToUpper(cik))
	s = strings.TrimPrefix(s, "CIK")

	if s == "" {
		return "", fmt.Errorf("cik is empty")
	}
	if len(s) > CIKLength {
		return "", fmt.Errorf("cik %q is longer than %d digits", cik, CIKLength)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("cik %q is not numeric", cik)
		}
	}
	return PadCIK(s), nil
}

// PadCIK pads a CIK number to ten digits with leading zeros.
func PadCIK(cik string) string {
	if len(cik) >= CIKLength {
		return cik
	}
	return strings.Repeat("0", CIKLength-len(cik)) + cik
}
