package project

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/folio-labs/folio-web/internal/frontmatter"
	"github.com/folio-labs/folio-web/internal/pathutil"
	"github.com/folio-labs/folio-web/internal/xerrors"
)

var ErrInvalidProject = errors.New("invalid project")

var extensions = []string{".md", ".mdx"}

// Repository is an immutable index of projects. Safe for concurrent use.
type Repository struct {
	all    []Project
	bySlug map[string]int
	tags   []string
}

// Load parses every *.md and *.mdx file directly under dir. Any bad file fails
// the whole load and the error names it.
func Load(fsys fs.FS, dir string) (*Repository, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, xerrors.Wrapf(err, "read project dir %q", dir)
	}

	var projects []Project
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		slug, ok := slugFromFilename(e.Name())
		if !ok {
			continue
		}
		name := path.Join(dir, e.Name())
		// the slug becomes a URL path segment and the API lookup key
		if !pathutil.IsSlug(slug) {
			return nil, xerrors.Newf("%w: %s: filename %q is not a valid slug (lowercase letters, digits, '-' and '_')", ErrInvalidProject, name, slug)
		}
		if prev, dup := seen[slug]; dup {
			return nil, xerrors.Newf("%w: %s: slug %q already defined by %s", ErrInvalidProject, name, slug, prev)
		}
		seen[slug] = name

		p, err := parseFile(fsys, name, slug)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return New(projects), nil
}

func parseFile(fsys fs.FS, name, slug string) (Project, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Project{}, xerrors.Wrapf(err, "read %s", name)
	}
	p, body, err := frontmatter.ParseBytes[Project](src)
	if err != nil {
		return Project{}, xerrors.Newf("%w: %s: %w", ErrInvalidProject, name, err)
	}
	if missing := p.missing(); len(missing) > 0 {
		return Project{}, xerrors.Newf("%w: %s: missing required field(s) %s", ErrInvalidProject, name, strings.Join(missing, ", "))
	}
	p.Slug = slug
	p.Body = string(body)
	p.ReadingTime = ReadingTime(p.Body)
	return p, nil
}

func slugFromFilename(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			slug := strings.TrimSuffix(name, ext)
			return slug, slug != ""
		}
	}
	return "", false
}

// New indexes projects, newest first. Ties on date sort by slug.
func New(projects []Project) *Repository {
	all := make([]Project, len(projects))
	copy(all, projects)
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date.Time) {
			return all[i].Date.After(all[j].Date.Time)
		}
		return all[i].Slug < all[j].Slug
	})

	r := &Repository{all: all, bySlug: make(map[string]int, len(all))}
	tagSet := make(map[string]struct{})
	for i, p := range all {
		r.bySlug[p.Slug] = i
		for _, t := range p.Tags {
			tagSet[t] = struct{}{}
		}
	}
	r.tags = make([]string, 0, len(tagSet))
	for t := range tagSet {
		r.tags = append(r.tags, t)
	}
	sort.Strings(r.tags)
	return r
}

// ListAll returns every project, newest first. The slice is a copy.
func (r *Repository) ListAll() []Project {
	out := make([]Project, len(r.all))
	copy(out, r.all)
	return out
}

func (r *Repository) ListFeatured() []Project {
	var out []Project
	for _, p := range r.all {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Get looks a project up by slug.
func (r *Repository) Get(slug string) (Project, bool) {
	i, ok := r.bySlug[slug]
	if !ok {
		return Project{}, false
	}
	return r.all[i], true
}

// Tags returns the distinct tags across all projects, sorted.
func (r *Repository) Tags() []string {
	out := make([]string, len(r.tags))
	copy(out, r.tags)
	return out
}

func (r *Repository) Len() int { return len(r.all) }
