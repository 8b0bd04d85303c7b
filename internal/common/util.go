package common

import (
	"crypto/rand"
	"math/big"
)

// WipeByteArray zeroes b. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*"
	allChars    = upperChars + lowerChars + digitChars + symbolChars
)

// TemporaryPasswordLength is the length of passwords made by GenerateTemporaryPassword.
const TemporaryPasswordLength = 16

// GenerateTemporaryPassword returns a random password containing at least one
// upper-case letter, one lower-case letter, one digit and one symbol.
func GenerateTemporaryPassword() (string, error) {
	buf := make([]byte, 0, TemporaryPasswordLength)
	for _, set := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := randChar(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < TemporaryPasswordLength {
		c, err := randChar(allChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func randChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
