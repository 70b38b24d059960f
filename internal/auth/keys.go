package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const keyPrefix = "mw"

// GenerateAPIKey creates a key in the form mw_{env}_{id}_{secret}.
// - id: 12 url-safe chars
// - secret: 32 url-safe chars
// Only the bcrypt hash of the secret should be stored.
func GenerateAPIKey(env string) (id string, rawKey string, secretHash []byte, err error) {
	id, secret := randomToken(12), randomToken(32)
	if id == "" || secret == "" {
		return "", "", nil, fmt.Errorf("failed to generate token")
	}
	rawKey = fmt.Sprintf("%s_%s_%s_%s", keyPrefix, env, id, secret)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", nil, err
	}
	return id, rawKey, hash, nil
}

// ParseAPIKey splits into env, id, secret
func ParseAPIKey(raw string) (env string, id string, secret string, ok bool) {
	parts := strings.SplitN(raw, "_", 4)
	if len(parts) != 4 || parts[0] != keyPrefix {
		return "", "", "", false
	}
	if parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", false
	}
	return parts[1], parts[2], parts[3], true
}

// randomToken returns n chars drawn from the URL-safe alphabet minus '_',
// which separates key parts.
func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	s := strings.ReplaceAll(base64.RawURLEncoding.EncodeToString(b), "_", "-")
	if len(s) > n {
		return s[:n]
	}
	return s
}
