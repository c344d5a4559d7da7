package utils

import (
	"strings"
	"unicode"
)

// Slugify lowers a name to a URL-safe slug: letters and digits kept, runs of
// anything else collapsed to single hyphens, leading/trailing hyphens
// trimmed.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// DeactivatedSlug appends the "-deactivated-<random>" suffix a company slug
// receives on deactivation, freeing the original slug for reuse.
func DeactivatedSlug(slug string) (string, error) {
	suffix, err := RandomHex(4)
	if err != nil {
		return "", err
	}
	return slug + "-deactivated-" + suffix, nil
}
