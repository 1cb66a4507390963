package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/puls-academy/backend/internal/models"
)

const defaultSecret = "puls-academy-secret-change-me"

// DefaultTTL matches the original token lifetime of 7 days.
const DefaultTTL = 7 * 24 * time.Hour

// RefreshTTL is the lifetime of refresh tokens.
const RefreshTTL = 30 * 24 * time.Hour

var secret = []byte(defaultSecret)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// ErrExpired reports a structurally valid token whose expiry has passed.
var ErrExpired = errors.New("token expired")

// Claims is the JWT payload. SessionID binds the token to the server-side
// ActiveSession row so the session guard can validate it in one lookup.
type Claims struct {
	UserID       string `json:"uid"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	College      string `json:"college,omitempty"`
	Gender       string `json:"gender,omitempty"`
	PharmacyType string `json:"pharmacy_type,omitempty"`
	SessionID    string `json:"sid,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"`
	jwtlib.RegisteredClaims
}

// Sign creates a signed access token for the given user bound to a session.
func Sign(u *models.UserModel, sessionID string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	claims := Claims{
		UserID:       u.ID,
		Email:        u.Email,
		Role:         u.Role,
		College:      u.College,
		Gender:       u.Gender,
		PharmacyType: u.PharmacyType,
		SessionID:    sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// SignRefresh creates a signed refresh token bound to the same session.
func SignRefresh(u *models.UserModel, sessionID string) (string, error) {
	claims := Claims{
		UserID:    u.ID,
		Role:      u.Role,
		SessionID: sessionID,
		Refresh:   true,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(RefreshTTL)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token string and returns the claims.
// An expired token returns ErrExpired so callers can distinguish it from
// a forged or malformed one.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
