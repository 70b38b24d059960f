package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/weatherengine/maritime/config"
	apperrors "github.com/weatherengine/maritime/internal/errors"
)

// ErrUnauthorized is returned for missing, malformed or unknown keys
var ErrUnauthorized = apperrors.ErrUnauthorized

// Verifier checks operator API keys against configured bcrypt hashes
type Verifier struct {
	required bool
	hashes   map[string][]byte
}

// NewVerifier builds a Verifier from the auth configuration. Hash entries
// are keyed by key id.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	hashes := make(map[string][]byte, len(cfg.APIKeyHashes))
	for id, h := range cfg.APIKeyHashes {
		hashes[id] = []byte(h)
	}
	return &Verifier{required: cfg.RequireAPIKeys, hashes: hashes}
}

// Required reports whether requests must carry a key
func (v *Verifier) Required() bool {
	return v.required
}

// Anonymous is the principal attached when keys are not required
func Anonymous() *Principal {
	return &Principal{Operator: AnonymousOperator}
}

// VerifyAPIKey validates raw and returns the principal it identifies
func (v *Verifier) VerifyAPIKey(raw string) (*Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthorized
	}
	env, id, secret, ok := ParseAPIKey(raw)
	if !ok {
		return nil, ErrUnauthorized
	}
	hash, ok := v.hashes[id]
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &Principal{Operator: env + ":" + id, KeyID: id}, nil
}
