// Package webassets embeds the page templates, the fallback pages served
// when no content is loaded, and a seed content bundle.
package webassets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed fallback seed templates
var embedded embed.FS

func sub(dir string) fs.FS {
	s, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return s
}

// FallbackFS holds maintenance.html and 404.html.
func FallbackFS() fs.FS { return sub("fallback") }

// TemplatesFS holds the html/template sources for every page.
func TemplatesFS() fs.FS { return sub("templates") }

// SeedFS returns the embedded content bundle, and false if it does not look
// like one (no site.yaml).
func SeedFS() (fs.FS, bool) {
	s, err := fs.Sub(embedded, "seed")
	if err != nil {
		return nil, false
	}
	if _, err := fs.Stat(s, "site.yaml"); err != nil {
		return nil, false
	}
	return s, true
}
