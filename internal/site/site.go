// Package site renders a content bundle (site.yaml, projects/, static/) into
// the in-memory file tree the server and the static exporter publish.
package site

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"
	"time"

	"github.com/folio-labs/folio-web/internal/filter"
	"github.com/folio-labs/folio-web/internal/project"
	"github.com/folio-labs/folio-web/internal/sitemap"
	"github.com/folio-labs/folio-web/internal/toc"
	"github.com/folio-labs/folio-web/internal/webassets"
	"github.com/folio-labs/folio-web/internal/xerrors"
)

var ErrInvalidOptions = errors.New("invalid site options")

const (
	projectsDir = "projects"
	staticDir   = "static"
	versionFile = "version.txt"
)

type Options struct {
	// BaseURL is the absolute public URL of the site root, used in
	// sitemap.xml and robots.txt.
	BaseURL string
	// BasePath prefixes every in-page link, e.g. "/portfolio" when the site
	// is published below the host root.
	BasePath string
	// Templates defaults to the embedded templates.
	Templates fs.FS
	Now       func() time.Time
}

func (o *Options) setDefaults() {
	if o.Templates == nil {
		o.Templates = webassets.TemplatesFS()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.BasePath = strings.TrimRight(o.BasePath, "/")
	if o.BasePath != "" && !strings.HasPrefix(o.BasePath, "/") {
		o.BasePath = "/" + o.BasePath
	}
}

func (o *Options) validate() error {
	if !strings.HasPrefix(o.BaseURL, "http://") && !strings.HasPrefix(o.BaseURL, "https://") {
		return xerrors.Newf("%w: BaseURL %q must be an absolute http(s) URL", ErrInvalidOptions, o.BaseURL)
	}
	return nil
}

// Site is a fully rendered bundle. Immutable after Build.
type Site struct {
	Profile  Profile
	Projects *project.Repository
	Version  string
	BuiltAt  time.Time

	opts     Options
	pages    map[string]*template.Template
	bodies   map[string]template.HTML
	outlines map[string][]toc.Heading
	files    fstest.MapFS
}

// Build loads and renders bundle. Any malformed project, profile or template
// fails the whole build.
func Build(bundle fs.FS, opts Options) (*Site, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Site{
		opts:     opts,
		BuiltAt:  opts.Now().UTC(),
		bodies:   make(map[string]template.HTML),
		outlines: make(map[string][]toc.Heading),
		files:    make(fstest.MapFS),
	}

	var err error
	if s.Profile, err = loadProfile(bundle); err != nil {
		return nil, err
	}
	if s.Projects, err = project.Load(bundle, projectsDir); err != nil {
		return nil, err
	}
	if raw, err := fs.ReadFile(bundle, versionFile); err == nil {
		s.Version = strings.TrimSpace(string(raw))
	}
	if s.pages, err = parseTemplates(opts.Templates, s.funcs()); err != nil {
		return nil, err
	}

	for _, p := range s.Projects.ListAll() {
		body, outline, err := renderMarkdown([]byte(p.Body))
		if err != nil {
			return nil, xerrors.Wrapf(err, "render project %q", p.Slug)
		}
		s.bodies[p.Slug] = body
		s.outlines[p.Slug] = outline
	}

	if err := s.renderAll(); err != nil {
		return nil, err
	}
	if err := s.copyStatic(bundle); err != nil {
		return nil, err
	}
	return s, nil
}

// FS is the rendered tree: index.html, <page>/index.html, projects/<slug>/,
// 404.html, sitemap.xml, robots.txt and static/.
func (s *Site) FS() fs.FS { return s.files }

// ProjectURL is the site-relative link to a project page, base path included.
func (s *Site) ProjectURL(slug string) string { return s.url(sitemap.ProjectPath(slug)) }

// Outline returns the heading outline of a project body.
func (s *Site) Outline(slug string) ([]toc.Heading, bool) {
	h, ok := s.outlines[slug]
	return h, ok
}

// RenderProjectIndex writes the projects page for c. The pre-rendered
// projects/index.html is this page with no criteria.
func (s *Site) RenderProjectIndex(w io.Writer, c filter.Criteria) error {
	all := s.Projects.ListAll()
	data := s.page("Projects", "projects")
	data.Criteria = c
	data.Projects = filter.Apply(all, c)
	data.Total = len(all)
	data.Chips = s.chips(c)
	return s.execute(w, "projects", data)
}

func (s *Site) renderAll() error {
	home := s.page("", "home")
	home.Featured = s.Projects.ListFeatured()
	if err := s.renderFile("index.html", "home", home); err != nil {
		return err
	}

	about := s.page("About", "about")
	aboutHTML, _, err := renderMarkdown([]byte(s.Profile.About))
	if err != nil {
		return xerrors.Wrap(err, "render about")
	}
	about.About = aboutHTML
	if err := s.renderFile("about/index.html", "about", about); err != nil {
		return err
	}

	if err := s.renderFile("contact/index.html", "contact", s.page("Contact", "contact")); err != nil {
		return err
	}
	if err := s.renderFile("resume/index.html", "resume", s.page("Resume", "resume")); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.RenderProjectIndex(&buf, filter.Criteria{}); err != nil {
		return xerrors.Wrap(err, "render projects/index.html")
	}
	s.putFile("projects/index.html", buf.Bytes())

	for _, p := range s.Projects.ListAll() {
		data := s.page(p.Title, "projects")
		data.Project = p
		data.Body = s.bodies[p.Slug]
		data.Outline = s.outlines[p.Slug]
		name := strings.TrimPrefix(sitemap.ProjectPath(p.Slug), "/") + "index.html"
		if err := s.renderFile(name, "project", data); err != nil {
			return err
		}
	}

	if err := s.renderFile("404.html", "404", s.page("Not found", "")); err != nil {
		return err
	}

	buf.Reset()
	if err := sitemap.Encode(&buf, sitemap.Build(s.opts.BaseURL, s.Projects.ListAll(), s.BuiltAt)); err != nil {
		return xerrors.Wrap(err, "render sitemap.xml")
	}
	s.putFile("sitemap.xml", buf.Bytes())
	s.putFile("robots.txt", []byte(s.robots()))
	return nil
}

func (s *Site) robots() string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + strings.TrimRight(s.opts.BaseURL, "/") + "/sitemap.xml\n"
}

func (s *Site) renderFile(name, page string, data pageData) error {
	var buf bytes.Buffer
	if err := s.execute(&buf, page, data); err != nil {
		return xerrors.Wrapf(err, "render %s", name)
	}
	s.putFile(name, buf.Bytes())
	return nil
}

func (s *Site) putFile(name string, data []byte) {
	s.files[name] = &fstest.MapFile{Data: data, Mode: 0o644, ModTime: s.BuiltAt}
}

// copyStatic copies static/** from the bundle unchanged. A bundle without
// static/ is fine.
func (s *Site) copyStatic(bundle fs.FS) error {
	if _, err := fs.Stat(bundle, staticDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fs.WalkDir(bundle, staticDir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return xerrors.Wrapf(err, "walk %s", name)
		}
		if d.IsDir() || strings.HasPrefix(path.Base(name), ".") {
			return nil
		}
		data, err := fs.ReadFile(bundle, name)
		if err != nil {
			return xerrors.Wrapf(err, "read %s", name)
		}
		s.putFile(name, data)
		return nil
	})
}

type chip struct {
	Label  string
	Href   string
	Active bool
}

func (s *Site) chips(c filter.Criteria) []chip {
	base := s.url("/projects/")
	out := []chip{{Label: "All Projects", Href: base + c.ToggleURL(filter.AllTag), Active: c.Tags.Empty()}}
	for _, t := range s.Projects.Tags() {
		out = append(out, chip{Label: t, Href: base + c.ToggleURL(t), Active: c.Tags.Has(t)})
	}
	return out
}
