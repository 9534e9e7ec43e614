package database

import (
	"regexp"
	"strings"
)

// LikePattern is a compiled SQL LIKE pattern: % matches any run of characters,
// _ matches exactly one, and a backslash escapes the next character.
// Matching is case-insensitive.
type LikePattern struct {
	raw string
	re  *regexp.Regexp
}

// CompileLike compiles a LIKE pattern.
func CompileLike(pattern string) *LikePattern {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(`.*`)
		case r == '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(`\\`)
	}
	b.WriteString(`$`)
	return &LikePattern{raw: pattern, re: regexp.MustCompile(b.String())}
}

// Match reports whether s matches the pattern.
func (p *LikePattern) Match(s string) bool {
	return p.re.MatchString(s)
}

func (p *LikePattern) String() string {
	return p.raw
}

// Like reports whether s matches the LIKE pattern.
func Like(pattern, s string) bool {
	return CompileLike(pattern).Match(s)
}
