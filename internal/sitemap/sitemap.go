// Package sitemap builds the sitemaps.org 0.9 document for the site.
package sitemap

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/folio-labs/folio-web/internal/project"
)

type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

type Entry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq ChangeFreq
	Priority   float64
}

// Route is a fixed page of the site, path relative to the site root.
type Route struct {
	Path       string
	ChangeFreq ChangeFreq
	Priority   float64
}

var StaticRoutes = []Route{
	{Path: "/", ChangeFreq: Monthly, Priority: 1.0},
	{Path: "/projects/", ChangeFreq: Weekly, Priority: 0.9},
	{Path: "/about/", ChangeFreq: Monthly, Priority: 0.7},
	{Path: "/resume/", ChangeFreq: Monthly, Priority: 0.7},
	{Path: "/contact/", ChangeFreq: Yearly, Priority: 0.5},
}

const (
	projectChangeFreq = Monthly
	projectPriority   = 0.8
)

// ProjectPath is the site-relative URL of a project detail page.
func ProjectPath(slug string) string {
	return "/projects/" + slug + "/"
}

// Build lists every static route, stamped with now, followed by one entry
// per project stamped with its date.
func Build(baseURL string, projects []project.Project, now time.Time) []Entry {
	base := strings.TrimRight(baseURL, "/")
	out := make([]Entry, 0, len(StaticRoutes)+len(projects))
	for _, r := range StaticRoutes {
		out = append(out, Entry{
			Loc:        base + r.Path,
			LastMod:    now,
			ChangeFreq: r.ChangeFreq,
			Priority:   r.Priority,
		})
	}
	for _, p := range projects {
		out = append(out, Entry{
			Loc:        base + ProjectPath(p.Slug),
			LastMod:    p.Date.Time,
			ChangeFreq: projectChangeFreq,
			Priority:   projectPriority,
		})
	}
	return out
}

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Encode writes entries as an XML sitemap.
func Encode(w io.Writer, entries []Entry) error {
	set := urlset{Xmlns: xmlns, URLs: make([]xmlURL, 0, len(entries))}
	for _, e := range entries {
		u := xmlURL{Loc: e.Loc, ChangeFreq: string(e.ChangeFreq)}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		if e.Priority > 0 {
			u.Priority = strconv.FormatFloat(e.Priority, 'f', 1, 64)
		}
		set.URLs = append(set.URLs, u)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
