// Package token decodes the signed end-user tokens issued by the web client.
package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the end-user token payload. GlobalName is the preferred display
// name; Username is the fallback when GlobalName is absent.
type Claims struct {
	GlobalName string `json:"global_name,omitempty"`
	Username   string `json:"username,omitempty"`
	jwtlib.RegisteredClaims
}

// DisplayName returns the preferred display name, falling back to the
// secondary username field.
func (c *Claims) DisplayName() string {
	if c.GlobalName != "" {
		return c.GlobalName
	}
	return c.Username
}

// Sign creates a signed token for the given subject.
func Sign(subject, globalName, username, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		GlobalName: globalName,
		Username:   username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// Decode validates a token and returns its claims, or nil for any failure:
// wrong segment count, declared algorithm other than HS256 (rejected before
// signature verification), bad signature, expired payload, malformed base64.
func Decode(tokenStr, secret string) *Claims {
	claims, err := decode(tokenStr, secret)
	if err != nil {
		return nil
	}
	return claims
}

func decode(tokenStr, secret string) (*Claims, error) {
	tok, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
