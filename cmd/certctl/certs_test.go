package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tharunaditya/certserver/internal/credential"
)

func TestDescribeError(t *testing.T) {
	dbErr := errors.New("database is locked")

	tests := []struct {
		name   string
		err    error
		prefix string
		target error
	}{
		{"malformed", fmt.Errorf("%w: bad base64", credential.ErrMalformedToken), credential.MessageInvalidFormat, credential.ErrMalformedToken},
		{"checksum", credential.ErrChecksumMismatch, credential.MessageInvalidHash, credential.ErrChecksumMismatch},
		{"database", fmt.Errorf("failed to load saved certificate: %w", dbErr), "failed to load certificate", dbErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := describeError(tt.err)
			assert.ErrorIs(t, err, tt.target)
			assert.Regexp(t, "^"+tt.prefix+": ", err.Error())
		})
	}

	err := describeError(dbErr)
	assert.NotContains(t, err.Error(), credential.MessageInvalidFormat)
}
