package sitehandler

import (
	"path"
	"strings"
)

func cacheControlForFile(name string, o *Options) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".html", "":
		return o.HTMLCacheControl
	case ".css", ".js", ".mjs",
		".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg", ".ico", ".avif",
		".woff", ".woff2", ".ttf",
		".map":
		return o.AssetCacheControl
	default:
		// sitemap.xml, robots.txt, resume.pdf
		return o.OtherCacheControl
	}
}

// etagFor is a weak validator per snapshot: every file changes when the
// bundle does, and never otherwise.
func etagFor(hash, version string) string {
	id := hash
	if len(id) > 16 {
		id = id[:16]
	}
	if id == "" {
		id = version
	}
	if id == "" {
		return ""
	}
	return `W/"` + id + `"`
}
