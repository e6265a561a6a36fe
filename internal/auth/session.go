// ABOUTME: Session cookie verification for browser principals
// ABOUTME: Uses HS256 signed JWTs with configurable secret

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the web frontend sets after login.
const SessionCookieName = "townday_session"

// Session errors
var (
	ErrExpiredSession = errors.New("session expired")
	ErrInvalidSession = errors.New("invalid session")
	ErrMissingClaim   = errors.New("missing required claim")
)

// SessionVerifier validates signed session cookies.
type SessionVerifier struct {
	secret []byte
}

// NewSessionVerifier creates a session verifier with the given secret.
func NewSessionVerifier(secret []byte) *SessionVerifier {
	return &SessionVerifier{secret: secret}
}

// Verify validates the cookie value and extracts the user ID from the "sub" claim.
func (v *SessionVerifier) Verify(cookieValue string) (userID string, err error) {
	token, err := jwt.Parse(cookieValue, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSession
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !token.Valid {
		return "", ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}

// Mint creates a new session cookie value for the given user ID with expiration.
func (v *SessionVerifier) Mint(userID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
