// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Personal statements and additional information may carry light formatting
// pasted from a word processor; Sanitize keeps that and drops everything
// executable. Status notes, names and document labels are plain text; Strip
// removes all markup from them.
package htmlsanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	statementPolicy = newStatementPolicy()
	strictPolicy    = bluemonday.StrictPolicy()

	tagPattern = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

func newStatementPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "hr", "strong", "b", "em", "i", "u", "s", "sub", "sup",
		"blockquote", "ul", "ol", "li", "h1", "h2", "h3", "h4")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize returns s with only formatting markup left in place.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(statementPolicy.Sanitize(s))
}

// Strip removes all markup from s. Entities produced by the sanitizer are
// left encoded.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	return !tagPattern.MatchString(s)
}
