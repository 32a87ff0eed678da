package checkout

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

var ten = big.NewInt(10)

// GenerateCode returns a uniformly random 6-digit code. Leading zeros are kept.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}

func wellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
