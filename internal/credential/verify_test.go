package credential

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify_Valid(t *testing.T) {
	got := VerifyCredential(janeToken)

	assert.Equal(t, Verification{
		Valid:     true,
		Name:      "Jane Doe",
		Series:    "Intro to Cryptography",
		Date:      "2024-05-01",
		Timestamp: 1714521600000,
	}, got)
}

func TestVerify_TruncatedChecksum(t *testing.T) {
	got := Verify(janeToken[:len(janeToken)-4])

	assert.False(t, got.Valid)
	assert.Equal(t, "Invalid credential hash", got.Error)
	assert.Empty(t, got.Name)
}

func TestVerify_Malformed(t *testing.T) {
	got := Verify("not-a-token")

	assert.False(t, got.Valid)
	assert.Equal(t, "Invalid credential format", got.Error)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, MessageInvalidHash, ErrorMessage(ErrChecksumMismatch))
	assert.Equal(t, MessageInvalidHash, ErrorMessage(fmt.Errorf("wrapped: %w", ErrChecksumMismatch)))
	assert.Equal(t, MessageInvalidFormat, ErrorMessage(ErrMalformedToken))
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrChecksumMismatch))
	assert.True(t, IsInvalid(fmt.Errorf("%w: bad base64", ErrMalformedToken)))
	assert.False(t, IsInvalid(errors.New("disk I/O error")))
	assert.False(t, IsInvalid(nil))

	_, err := Decode("1-abc")
	assert.True(t, IsInvalid(err))
}
