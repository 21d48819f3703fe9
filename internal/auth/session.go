// Package auth issues and verifies the signed session tokens handed to clients
// after login or signup.
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the session token for browser clients.
const CookieName = "auth_token"

// ErrNoToken is returned by TokenFromRequest when the request carries no token.
var ErrNoToken = errors.New("no session token")

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long issued tokens stay valid (0 => never expire).
	tokenTTL time.Duration
)

// ParseExpireTime parses a TOKEN_EXPIRE_TIME value. "never", "0" and the empty
// string all mean tokens do not expire.
func ParseExpireTime(s string) (time.Duration, error) {
	if s == "never" || s == "0" || s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse token expire time %q: %w", s, err)
	}
	return d, nil
}

// Init generates a fresh ed25519 key pair at runtime and sets the token expiration.
// Tokens issued before a restart are no longer accepted afterwards.
func Init(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenTTL = ttl
	return nil
}

// CreateJWT creates a signed JWT token with "sub" = userID and, unless tokens
// never expire, an "exp" claim.
func CreateJWT(userID string) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth not initialized")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
	}
	if tokenTTL > 0 {
		claims["exp"] = now.Add(tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a JWT string, returns the "sub" field if valid, else an error.
func AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid jwt claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", errors.New("missing sub in jwt")
	}
	return userID, nil
}

// TokenFromRequest returns the bearer token from the Authorization header, or
// the auth_token cookie when no header is set.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

// SetCookie attaches token to the response as the auth_token cookie.
func SetCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if tokenTTL > 0 {
		c.MaxAge = int(tokenTTL.Seconds())
	}
	http.SetCookie(w, c)
}
