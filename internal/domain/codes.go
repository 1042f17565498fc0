package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	codePrefix   = "RH"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeRandLen  = 6
)

// typeLetters maps each license type to the letter embedded in its code.
var typeLetters = map[LicenseType]byte{
	LicenseTrial:      'T',
	LicenseMonthly:    'M',
	LicenseYearly:     'Y',
	LicenseHalfSeason: 'H',
	LicenseSeason:     'S',
}

// GenerateLicenseCode mints an activation code of the form RH-X######, where X
// indicates the license type and the tail is 6 random uppercase alphanumerics.
func GenerateLicenseCode(t LicenseType) (string, error) {
	letter, ok := typeLetters[t]
	if !ok {
		return "", fmt.Errorf("unknown license type: %s", t)
	}

	var b strings.Builder
	b.WriteString(codePrefix)
	b.WriteByte('-')
	b.WriteByte(letter)
	for i := 0; i < codeRandLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate license code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// GenerateJoinCode mints a 6-character team join code.
func GenerateJoinCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeRandLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeLicenseCode uppercases a human-entered activation code before lookup.
func NormalizeLicenseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
