package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// HashString generates a SHA1 hash of a string
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// CacheKey builds a namespaced key from case-insensitive parts
func CacheKey(namespace string, parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return namespace + ":" + HashString(strings.Join(norm, "|"))[:16]
}
