package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("Padel2026!")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, len(buf)), buf)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestGenerateTemporaryPassword_Composition(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)
		require.Len(t, pw, TemporaryPasswordLength)

		for _, set := range []string{upperChars, lowerChars, digitChars, symbolChars} {
			assert.Truef(t, strings.ContainsAny(pw, set), "%q lacks a character from %q", pw, set)
		}
		for _, c := range pw {
			assert.Truef(t, strings.ContainsRune(allChars, c), "%q contains unexpected rune %q", pw, c)
		}
	}
}

func TestGenerateTemporaryPassword_Differs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)
		seen[pw] = struct{}{}
	}
	// 20 draws from a 70^16 space
	assert.Len(t, seen, 20)
}
