package helpers

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	spaceRun    = regexp.MustCompile(`[ \t\f\v\r]+`)
	newlineRun  = regexp.MustCompile(`\n{3,}`)
	anyWhiteRun = regexp.MustCompile(`\s+`)
)

// StrictHTMLPolicy returns a singleton bluemonday policy that strips every HTML
// element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SanitizeHTMLStrict removes every HTML tag from s and unescapes entities.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(StrictHTMLPolicy().Sanitize(s)))
}

// PlainText sanitizes extracted article text: tags removed, runs of spaces
// collapsed, at most one blank line between paragraphs.
func PlainText(s string) string {
	s = SanitizeHTMLStrict(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(newlineRun.ReplaceAllString(s, "\n\n"))
}

// SingleLine replaces newlines and whitespace runs with one space.
func SingleLine(s string) string {
	return strings.TrimSpace(anyWhiteRun.ReplaceAllString(s, " "))
}
