package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminToken_HashAndVerify(t *testing.T) {
	token, err := GenerateAdminToken()
	require.NoError(t, err)
	assert.Len(t, token, 43)

	hash, err := HashAdminToken(token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, VerifyAdminToken(token, hash))
	assert.False(t, VerifyAdminToken(token+"x", hash))
	assert.False(t, VerifyAdminToken("", hash))
	assert.False(t, VerifyAdminToken(token, ""))
	assert.False(t, VerifyAdminToken(token, "not-a-hash"))
}

func TestHashAdminToken_Empty(t *testing.T) {
	_, err := HashAdminToken("")
	assert.Error(t, err)
}

func TestTOTP(t *testing.T) {
	secret, url, err := GenerateTOTPSecret("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(url, "otpauth://totp/"))
	assert.Contains(t, url, "issuer=certserver")

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	assert.True(t, ValidateTOTP(secret, code))
	assert.False(t, ValidateTOTP(secret, "000000") && code != "000000")
	assert.False(t, ValidateTOTP("", code))
	assert.False(t, ValidateTOTP(secret, ""))
}
