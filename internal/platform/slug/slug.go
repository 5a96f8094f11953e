package slug

import (
	"regexp"
	"strings"
)

const maxLen = 60

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases input and joins its alphanumeric runs with dashes, capped
// at 60 characters.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// FileName is the export file name for a story: "<slug>-<id>.md".
func FileName(title, id string) string {
	return Make(title) + "-" + Make(id) + ".md"
}
