package domain

import (
	"net/url"
	"strings"
)

const (
	ShareTitle   = "My Interactive Story"
	ShareMessage = "Check out my interactive story adventure! #StoryApp"
)

type Share struct {
	Title string
	Link  string
	Text  string
}

// NewShare builds the invitation for storyID on the web app at webURL. Text
// is the message followed by the link, ready to paste.
func NewShare(webURL, storyID string) Share {
	link := strings.TrimRight(webURL, "/") + "/stories/" + url.PathEscape(storyID)
	return Share{Title: ShareTitle, Link: link, Text: ShareMessage + " " + link}
}
