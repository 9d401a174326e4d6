package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/folio-labs/folio-web/internal/pathutil"
)

// resolvePath maps a URL path to a file in the rendered site.
// It returns the file name (no leading slash), or a canonical path to
// redirect to, or ok=false when nothing matches.
func resolvePath(urlPath string, fsys fs.FS) (file string, redirectTo string, ok bool) {
	p := urlPath
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.ContainsAny(p, "\x00\\") || strings.Contains(p, "..") || pathutil.HasDotSegments(p) {
		return "", "", false
	}

	trailing := strings.HasSuffix(p, "/")
	clean := path.Clean(p)
	if trailing && clean != "/" {
		clean += "/"
	}

	switch {
	case clean == "/":
		return lookup(fsys, "index.html")
	case strings.HasSuffix(clean, "/"):
		return lookup(fsys, strings.TrimPrefix(clean, "/")+"index.html")
	case path.Ext(clean) != "":
		return lookup(fsys, strings.TrimPrefix(clean, "/"))
	}

	// /projects/alpha -> /projects/alpha/ when that page exists
	canonical := pathutil.Canonical(clean)
	if existsFile(fsys, strings.TrimPrefix(canonical, "/")+"index.html") {
		return "", canonical, true
	}
	return "", "", false
}

func lookup(fsys fs.FS, name string) (string, string, bool) {
	if existsFile(fsys, name) {
		return name, "", true
	}
	return "", "", false
}

func existsFile(fsys fs.FS, name string) bool {
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
