package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned by Claims when the session is anonymous.
var ErrNoToken = errors.New("session: no token")

// Claims is the display-only view of the token payload. The signature is not
// verified and nothing in the client makes authorization decisions from it.
type Claims struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that is before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the current token as a JWT without verifying it.
func (s *Store) Claims() (*Claims, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims decodes token as a JWT without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("decoding token claims: %w", err)
	}

	c := &Claims{}
	switch v := mc["user_id"].(type) {
	case string:
		c.UserID = v
	case float64:
		c.UserID = strconv.FormatInt(int64(v), 10)
	}
	if tt, ok := mc["token_type"].(string); ok {
		c.TokenType = tt
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("decoding token expiry: %w", err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
