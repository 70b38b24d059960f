package utils

import "strings"

// ContainsAny checks if the text contains any of the given keywords
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// InferHazard infers the alert type from free text
func InferHazard(text string) string {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "cyclone"), strings.Contains(text, "hurricane"), strings.Contains(text, "typhoon"):
		return "cyclone"
	case strings.Contains(text, "storm"), strings.Contains(text, "gale"):
		return "storm"
	case strings.Contains(text, "wave"), strings.Contains(text, "swell"), strings.Contains(text, "sea state"):
		return "waves"
	case strings.Contains(text, "current"), strings.Contains(text, "tide"):
		return "current"
	case strings.Contains(text, "fog"), strings.Contains(text, "visibility"):
		return "visibility"
	case strings.Contains(text, "wind"):
		return "wind"
	default:
		return "general"
	}
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
