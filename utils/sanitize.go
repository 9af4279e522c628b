package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy = bluemonday.UGCPolicy()
	plainPolicy   = bluemonday.StrictPolicy()
)

// SanitizeContent keeps user-generated markup that is safe to render (links, emphasis, lists).
func SanitizeContent(input string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(input))
}

// SanitizePlain strips every tag, for single line fields such as titles.
func SanitizePlain(input string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(input))
}
