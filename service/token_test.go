package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const SECRET = "test-secret"

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, time.Minute)

	token, err := tokens.Issue(MSISDN)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	msisdn, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, MSISDN, msisdn)
}

func TestTokenIssuer_VerifyWrongSecret(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, time.Minute)
	other := NewTokenIssuer("another-secret", time.Minute)

	token, err := other.Issue(MSISDN)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.Equal(t, ErrInvalidToken, err)
}

func TestTokenIssuer_VerifyExpired(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, -time.Minute)

	token, err := tokens.Issue(MSISDN)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.Equal(t, ErrInvalidToken, err)
}

func TestTokenIssuer_VerifyWrongTokenType(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, time.Minute)

	//well-signed token carrying a foreign purpose claim
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": MSISDN,
		"typ": "password_reset",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SECRET))
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.Equal(t, ErrInvalidToken, err)
}

func TestTokenIssuer_VerifyMissingSubject(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, time.Minute)

	now := time.Now()
	claims := jwt.MapClaims{
		"typ": tokenType,
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SECRET))
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.Equal(t, ErrInvalidToken, err)
}

func TestTokenIssuer_VerifyGarbage(t *testing.T) {
	tokens := NewTokenIssuer(SECRET, time.Minute)

	_, err := tokens.Verify("blablabla")
	require.Equal(t, ErrInvalidToken, err)

	_, err = tokens.Verify("")
	require.Equal(t, ErrInvalidToken, err)
}
