package utils

import (
	"strings"
	"testing"
)

func TestHashString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple string", "hello", "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
		{"Empty string", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"Complex string", "The quick brown fox jumps over the lazy dog", "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashString(tt.input)
			if result != tt.expected {
				t.Errorf("Expected hash %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("forecast", "Rotterdam")
	b := CacheKey("forecast", "  rotterdam ")
	if a != b {
		t.Errorf("Expected normalised keys to match: %s != %s", a, b)
	}
	if !strings.HasPrefix(a, "forecast:") || len(a) != len("forecast:")+16 {
		t.Errorf("Unexpected key shape %s", a)
	}
	if CacheKey("forecast", "Hamburg") == a {
		t.Error("Expected different cities to produce different keys")
	}
}
