package session

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/hyeonlog/booklog/internal/shared"
)

// TokenExpiry decodes the unverified exp claim of the current session token.
//
// Display only. The token is never validated here; the server remains the
// authority on whether a request is accepted.
func (s *Store) TokenExpiry() (time.Time, error) {
	sess := s.Current()
	if !sess.Established() {
		return time.Time{}, shared.ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(sess.Token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}

	return time.Unix(int64(exp), 0), nil
}
