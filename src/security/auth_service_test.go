// backend/src/security/auth_service_test.go
package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService(testSecret, time.Minute).GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("another-secret-another-secret-32", time.Minute)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(testSecret, -time.Minute)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)

	first, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
