package utils

import (
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// NormalizeText trims free text, turns whitespace runs into single spaces
// and drops control characters
func NormalizeText(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(SanitizeString(s))
}
