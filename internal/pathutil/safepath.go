// Package pathutil holds small URL path helpers shared by the handlers.
package pathutil

import "strings"

// HasDotSegments reports whether any path segment is "." or "..".
func HasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// IsSlug reports whether s is usable as a project slug in a URL:
// non-empty, lowercase ASCII letters, digits, '-' and '_', not starting with '-'.
func IsSlug(s string) bool {
	if s == "" || len(s) > 128 || s[0] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Canonical returns the directory form of a page path ("/about" -> "/about/").
// Paths whose last segment has an extension are returned unchanged.
func Canonical(p string) string {
	if p == "" {
		return "/"
	}
	if strings.HasSuffix(p, "/") {
		return p
	}
	last := p[strings.LastIndexByte(p, '/')+1:]
	if strings.Contains(last, ".") {
		return p
	}
	return p + "/"
}
