package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from an access token without the signing key.
type TokenInfo struct {
	JWT       bool
	Subject   string
	ExpiresAt time.Time
}

// DescribeToken decodes token as a JWT without verifying its signature. Any
// token that does not parse is reported as opaque.
func DescribeToken(token string) TokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{JWT: true}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else if uid, ok := claims["user_id"]; ok {
		// SimpleJWT puts the user id in its own claim.
		info.Subject = fmt.Sprint(uid)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info
}
