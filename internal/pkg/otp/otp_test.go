package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretWithCode_RoundTrip(t *testing.T) {
	now := time.Now()
	code, secret, err := GenerateSecretWithCode(now)
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.Len(t, code, 6)

	assert.True(t, Verify(secret, code, now))
}

func TestGenerateCode_SameSecretRederives(t *testing.T) {
	now := time.Now()
	code1, secret, err := GenerateSecretWithCode(now)
	require.NoError(t, err)

	// A repeat challenge within the same window re-derives the same code.
	code2, err := GenerateCode(secret, now)
	require.NoError(t, err)
	assert.Equal(t, code1, code2)
}

func TestVerify_StaleCodeFails(t *testing.T) {
	now := time.Now()
	code, secret, err := GenerateSecretWithCode(now)
	require.NoError(t, err)

	assert.True(t, Verify(secret, code, now))
	assert.False(t, Verify(secret, code, now.Add(Window+time.Second)))
}

func TestVerify_WrongCodeFails(t *testing.T) {
	now := time.Now()
	code, secret, err := GenerateSecretWithCode(now)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	assert.False(t, Verify(secret, wrong, now))
}

func TestVerify_MissingSecretIsNegativeNotError(t *testing.T) {
	assert.False(t, Verify("", "123456", time.Now()))
}

func TestVerify_MalformedCodeIsNegativeNotError(t *testing.T) {
	_, secret, err := GenerateSecretWithCode(time.Now())
	require.NoError(t, err)
	assert.False(t, Verify(secret, "not-a-code", time.Now()))
}

func TestGenerateCode_EmptySecretIsError(t *testing.T) {
	_, err := GenerateCode("", time.Now())
	require.Error(t, err)
}

func TestGenerateSecretWithCode_FreshSecrets(t *testing.T) {
	now := time.Now()
	_, s1, err := GenerateSecretWithCode(now)
	require.NoError(t, err)
	_, s2, err := GenerateSecretWithCode(now)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}
