package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashText is the cache key used for embeddings.
func HashText(model, text string) string {
	hash := sha256.New()
	hash.Write([]byte(model))
	hash.Write([]byte{0})
	hash.Write([]byte(text))
	return hex.EncodeToString(hash.Sum(nil))
}

func ParseArguments(arguments string) (map[string]any, error) {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		return map[string]any{}, nil
	}
	var result map[string]any
	err := json.Unmarshal([]byte(arguments), &result)
	if err != nil {
		return nil, fmt.Errorf("error parsing arguments: %w", err)
	}
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

// Truncate shortens s to at most n runes, marking the cut with "...".
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
