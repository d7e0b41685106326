package util

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// GenUUID generates a new UUID string.
func GenUUID() string {
	return uuid.New().String()
}

// GenShortUUID generates a compact identifier suitable for object keys.
func GenShortUUID() string {
	return shortuuid.New()
}

// HasPrefixes returns true if the string s has any of the given prefixes.
func HasPrefixes(src string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}
