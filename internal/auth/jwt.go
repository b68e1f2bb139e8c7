// Package auth reads the operator identity carried by the bearer token the
// remote API issued.
//
// The console never holds the server's signing key, so tokens cannot be
// verified here. The claims are only used to label local records
// (opened_by, opened_by_user_id); the remote server still verifies the
// signature on every sync call and answers 401/403 when it is bad.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/losnotables/opsconsole/internal/models"
)

// Claims are the claims the remote API embeds in its access tokens.
// Older tokens only carry the user id in "sub".
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Actor maps the claims onto the operator record.
func (c *Claims) Actor() models.Actor {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return models.Actor{ID: id, Email: c.Email, FullName: c.FullName, Role: c.Role}
}

// ParseUnverified decodes tokenStr without checking its signature or expiry.
func ParseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == "" && claims.Subject == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}
