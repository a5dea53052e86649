// Package auth inspects the session token the client was handed. The
// client never holds the signing secret; issuance and verification are
// the server's job. The point of inspecting locally is to fail fast on an
// expired token instead of burning the reconnection budget against 1008
// closes.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shelftalk/errors"
)

// Claims is the subset of the server's JWT this client cares about.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// InspectToken parses the token without verifying its signature and
// rejects it when already expired.
func InspectToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.ErrMalformedToken
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.ErrTokenExpired
	}
	return claims, nil
}
