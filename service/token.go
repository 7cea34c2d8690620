package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokens issued for other purposes must never authorize this subsystem
const tokenType = "subscription_access"

var ErrInvalidToken = errors.New("invalid token")

type TokenIssuer interface {
	//Issue signs a time-limited access token for the given msisdn
	Issue(msisdn string) (string, error)
	//Verify returns the msisdn asserted by a valid token
	Verify(token string) (string, error)
}

func NewTokenIssuer(secret string, ttl time.Duration) TokenIssuer {
	return &tokenIssuer{secret: []byte(secret), ttl: ttl}
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func (t *tokenIssuer) Issue(msisdn string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": msisdn,
		"typ": tokenType,
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *tokenIssuer) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return "", ErrInvalidToken
	}
	msisdn, _ := claims["sub"].(string)
	if msisdn == "" {
		return "", ErrInvalidToken
	}

	return msisdn, nil
}
