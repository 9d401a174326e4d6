package site

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/folio-labs/folio-web/internal/filter"
	"github.com/folio-labs/folio-web/internal/project"
	"github.com/folio-labs/folio-web/internal/toc"
	"github.com/folio-labs/folio-web/internal/webassets"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		BaseURL: "https://folio.example.com",
		Now:     func() time.Time { return fixedNow },
	}
}

func bundle() fstest.MapFS {
	return fstest.MapFS{
		"site.yaml": {Data: []byte(`name: Test Person
headline: Engineer
about: |
  Hello **world**.
email: test@example.com
contact:
  - label: GitHub
    url: https://github.com/test
resume: /static/resume.pdf
`)},
		"version.txt": {Data: []byte("v42\n")},
		"projects/alpha.md": {Data: []byte(`---
title: Alpha Kafka
date: 2025-08
shortDescription: Streams
role: Dev
heroImage: /static/a.png
tools: [Go, Kafka]
tags: [go, kafka]
featured: true
---
## Intro

text

## Intro

<script>alert(1)</script>
`)},
		"projects/beta.md": {Data: []byte(`---
title: Beta
date: 2024-01-01
shortDescription: Design work
role: Designer
heroImage: https://cdn.example.com/b.png
tools: [Figma]
tags: [design]
---
Body.
`)},
		"static/a.png":      {Data: []byte("png")},
		"static/.DS_Store":  {Data: []byte("junk")},
		"static/resume.pdf": {Data: []byte("%PDF")},
	}
}

func mustBuild(t *testing.T, b fs.FS, opts Options) *Site {
	t.Helper()
	s, err := Build(b, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func readFile(t *testing.T, s *Site, name string) string {
	t.Helper()
	data, err := fs.ReadFile(s.FS(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestBuild_RendersEveryPage(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	for _, name := range []string{
		"index.html",
		"about/index.html",
		"contact/index.html",
		"resume/index.html",
		"projects/index.html",
		"projects/alpha/index.html",
		"projects/beta/index.html",
		"404.html",
		"sitemap.xml",
		"robots.txt",
		"static/a.png",
		"static/resume.pdf",
	} {
		if _, err := fs.Stat(s.FS(), name); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := fs.Stat(s.FS(), "static/.DS_Store"); err == nil {
		t.Error("hidden static files should not be copied")
	}
	if s.Version != "v42" {
		t.Errorf("Version = %q", s.Version)
	}
	if s.Projects.Len() != 2 {
		t.Errorf("projects = %d", s.Projects.Len())
	}
}

func TestBuild_HomeListsFeatured(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	home := readFile(t, s, "index.html")
	if !strings.Contains(home, "Alpha Kafka") {
		t.Error("featured project missing from home")
	}
	if strings.Contains(home, ">Beta<") {
		t.Error("non-featured project on home")
	}
	if !strings.Contains(home, "<title>Test Person</title>") {
		t.Error("home title")
	}
}

func TestBuild_ProjectPage(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	page := readFile(t, s, "projects/alpha/index.html")

	for _, want := range []string{
		`<h2 id="intro">Intro</h2>`,
		`<h2 id="intro-1">Intro</h2>`,
		`href="#intro"`,
		`href="#intro-1"`,
		"August 2025",
		"1 min read",
		`src="/static/a.png"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("project page missing %q", want)
		}
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("raw html in body must not be rendered")
	}

	beta := readFile(t, s, "projects/beta/index.html")
	if !strings.Contains(beta, `src="https://cdn.example.com/b.png"`) {
		t.Error("absolute image URLs must not be prefixed")
	}
}

func TestOutline_MatchesExtract(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	p, _ := s.Projects.Get("alpha")
	got, ok := s.Outline("alpha")
	if !ok {
		t.Fatal("no outline")
	}
	if diff := cmp.Diff(toc.Extract([]byte(p.Body)), got); diff != "" {
		t.Fatalf("outline differs from toc.Extract:\n%s", diff)
	}
	if _, ok := s.Outline("nope"); ok {
		t.Fatal("outline for unknown slug")
	}
}

func TestBuild_BasePath(t *testing.T) {
	opts := testOptions()
	opts.BasePath = "portfolio/"
	s := mustBuild(t, bundle(), opts)
	home := readFile(t, s, "index.html")
	for _, want := range []string{
		`href="/portfolio/static/css/site.css"`,
		`href="/portfolio/projects/alpha/"`,
		`href="/portfolio/about/"`,
	} {
		if !strings.Contains(home, want) {
			t.Errorf("home missing %q", want)
		}
	}
}

func TestBuild_SitemapAndRobots(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	sm := readFile(t, s, "sitemap.xml")
	for _, want := range []string{
		"<loc>https://folio.example.com/</loc>",
		"<loc>https://folio.example.com/projects/alpha/</loc>",
		"<lastmod>2025-08-01</lastmod>",
		"<lastmod>2026-10-19</lastmod>",
	} {
		if !strings.Contains(sm, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if robots := readFile(t, s, "robots.txt"); !strings.Contains(robots, "Sitemap: https://folio.example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", robots)
	}
}

func TestRenderProjectIndex_Filters(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())

	var buf bytes.Buffer
	c := filter.Criteria{Tags: filter.NewSelection("design")}
	if err := s.RenderProjectIndex(&buf, c); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "Alpha Kafka") || !strings.Contains(out, "Beta") {
		t.Fatalf("tag filter not applied:\n%s", out)
	}
	if !strings.Contains(out, "Showing 1 of 2") {
		t.Error("count missing")
	}
	if !strings.Contains(out, `<input type="hidden" name="tag" value="design">`) {
		t.Error("selected tag not carried into the search form")
	}

	buf.Reset()
	if err := s.RenderProjectIndex(&buf, filter.Criteria{Search: "nothing-matches"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No projects found") {
		t.Error("empty state missing")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fstest.MapFS)
		opts   func(*Options)
		is     error
	}{
		{name: "no base url", opts: func(o *Options) { o.BaseURL = "" }, is: ErrInvalidOptions},
		{name: "missing profile", mutate: func(b fstest.MapFS) { delete(b, "site.yaml") }},
		{name: "profile without name", mutate: func(b fstest.MapFS) { b["site.yaml"] = &fstest.MapFile{Data: []byte("headline: x\n")} }},
		{name: "bad project", mutate: func(b fstest.MapFS) { b["projects/bad.md"] = &fstest.MapFile{Data: []byte("nope")} }, is: project.ErrInvalidProject},
		{name: "no projects dir", mutate: func(b fstest.MapFS) {
			delete(b, "projects/alpha.md")
			delete(b, "projects/beta.md")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bundle()
			if tt.mutate != nil {
				tt.mutate(b)
			}
			opts := testOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := Build(b, opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestBuild_Seed(t *testing.T) {
	seed, ok := webassets.SeedFS()
	if !ok {
		t.Fatal("no seed")
	}
	s := mustBuild(t, seed, testOptions())
	if s.Projects.Len() == 0 {
		t.Fatal("seed has no projects")
	}
	if len(s.Projects.ListFeatured()) == 0 {
		t.Fatal("seed has no featured projects")
	}
}

func TestExport(t *testing.T) {
	s := mustBuild(t, bundle(), testOptions())
	dir := t.TempDir()
	n, err := s.Export(dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n < 10 {
		t.Fatalf("wrote %d files", n)
	}
	data, err := os.ReadFile(filepath.Join(dir, "projects", "alpha", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Alpha Kafka") {
		t.Fatal("exported page content")
	}
}
