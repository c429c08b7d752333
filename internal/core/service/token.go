package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// tokenClaims is the payload the werk API signs into every bearer token.
type tokenClaims struct {
	User domain.User `json:"user"`
	jwt.RegisteredClaims
}

// decodeToken reads the user and expiry out of an API token. The signature is
// not checked here: the API verifies it on every call, and the client never
// holds the signing key.
func decodeToken(raw string, now time.Time) (domain.User, time.Time, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return domain.User{}, time.Time{}, fmt.Errorf("decode token: %w: %v", domain.ErrAuth, err)
	}
	if claims.User.ID == "" {
		return domain.User{}, time.Time{}, fmt.Errorf("decode token: %w: missing user claim", domain.ErrAuth)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
		if !now.Before(exp) {
			return domain.User{}, time.Time{}, fmt.Errorf("decode token: %w: token expired", domain.ErrAuth)
		}
	}
	return claims.User, exp, nil
}
