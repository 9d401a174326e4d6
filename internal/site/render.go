package site

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/folio-labs/folio-web/internal/filter"
	"github.com/folio-labs/folio-web/internal/project"
	"github.com/folio-labs/folio-web/internal/toc"
	"github.com/folio-labs/folio-web/internal/xerrors"
)

// shared by every page
var layoutFiles = []string{"layout.html", "partials.html"}

var pageNames = []string{"home", "about", "contact", "resume", "projects", "project", "404"}

type pageData struct {
	Profile  Profile
	Title    string
	Section  string
	Year     int
	Version  string
	Featured []project.Project
	Projects []project.Project
	Total    int
	Chips    []chip
	Criteria filter.Criteria
	Project  project.Project
	Body     template.HTML
	About    template.HTML
	Outline  []toc.Heading
}

func (s *Site) page(title, section string) pageData {
	return pageData{
		Profile: s.Profile,
		Title:   title,
		Section: section,
		Year:    s.BuiltAt.Year(),
		Version: s.Version,
	}
}

func (s *Site) url(p string) string {
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		return s.opts.BasePath + p
	}
	return p
}

func (s *Site) funcs() template.FuncMap {
	return template.FuncMap{
		"url":        s.url,
		"projectURL": s.ProjectURL,
		"join":       strings.Join,
	}
}

func parseTemplates(tfs fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(tfs, layoutFiles...)
	if err != nil {
		return nil, xerrors.Wrap(err, "parse layout templates")
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, xerrors.Wrapf(err, "clone layout for %s", name)
		}
		if _, err := t.ParseFS(tfs, name+".html"); err != nil {
			return nil, xerrors.Wrapf(err, "parse template %s.html", name)
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Site) execute(w io.Writer, page string, data pageData) error {
	t, ok := s.pages[page]
	if !ok {
		return xerrors.Newf("unknown page template %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Raw HTML in bodies is dropped by the renderer's default (safe) mode.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown parses src once; Collect stamps the outline IDs onto the
// headings before they are rendered.
func renderMarkdown(src []byte) (template.HTML, []toc.Heading, error) {
	doc := markdown.Parser().Parse(text.NewReader(src))
	outline := toc.Collect(doc, src)

	var buf bytes.Buffer
	if err := markdown.Renderer().Render(&buf, src, doc); err != nil {
		return "", nil, err
	}
	return template.HTML(buf.String()), outline, nil
}
