package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPasswords makes readPassword return entries in order.
func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(entries) {
			return nil, errors.New("no more input")
		}
		i++
		return []byte(entries[i-1]), nil
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword(&out, "Password: ")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetConfirmedPassword(t *testing.T) {
	var out bytes.Buffer

	stubPasswords(t, "Padel2026!", "Padel2026!")
	got, err := GetConfirmedPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "Padel2026!", got)
	assert.Contains(t, out.String(), "Confirm password: ")

	stubPasswords(t, "Padel2026!", "Padel2027!")
	_, err = GetConfirmedPassword(&out)
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	stubPasswords(t, "only-one")
	_, err = GetConfirmedPassword(&out)
	assert.Error(t, err)
}
