package domain

import (
	"regexp"
	"strings"
)

// boilerplate matches the lead-in the generator prepends to options, e.g.
// "Here are the three engaging and distinct directions for the next part of the story:".
var boilerplate = regexp.MustCompile(`(?i)^\s*here are (?:the )?(?:[\w-]+ )*?(?:directions|options|paths|choices) for the next part of the story:\s*`)

// CleanOptions strips the boilerplate prefix from each option. Order and
// duplicates are kept since the submitted choice is positional.
func CleanOptions(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	out := make([]string, 0, len(options))
	for _, option := range options {
		out = append(out, strings.TrimSpace(boilerplate.ReplaceAllString(option, "")))
	}
	return out
}
