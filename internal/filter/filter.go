// Package filter narrows a project list by tag selection and search text.
// All state is carried in values; nothing here is global.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/folio-labs/folio-web/internal/project"
)

// AllTag is the chip that clears the selection.
const AllTag = "all"

// Selection is an immutable set of selected tags. The zero value is empty.
type Selection struct {
	tags map[string]struct{}
}

func NewSelection(tags ...string) Selection {
	var s Selection
	for _, t := range tags {
		if t == "" || t == AllTag || s.Has(t) {
			continue
		}
		s = s.Toggle(t)
	}
	return s
}

// Toggle returns a selection with tag added when absent and removed when
// present. Toggle(AllTag) returns the empty selection.
func (s Selection) Toggle(tag string) Selection {
	if tag == AllTag {
		return Selection{}
	}
	next := make(map[string]struct{}, len(s.tags)+1)
	for t := range s.tags {
		next[t] = struct{}{}
	}
	if _, ok := next[tag]; ok {
		delete(next, tag)
	} else {
		next[tag] = struct{}{}
	}
	return Selection{tags: next}
}

func (s Selection) Has(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

func (s Selection) Len() int    { return len(s.tags) }
func (s Selection) Empty() bool { return len(s.tags) == 0 }

// Tags returns the selected tags sorted.
func (s Selection) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether p passes: any selected tag present on p (or nothing
// selected), and query a case-insensitive substring of the title or short
// description (or empty).
func Matches(p project.Project, sel Selection, query string) bool {
	if !sel.Empty() {
		hit := false
		for t := range sel.tags {
			if p.HasTag(t) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.ShortDescription), q)
}

// Criteria is the full filter state of the projects page.
type Criteria struct {
	Tags   Selection
	Search string
}

func (c Criteria) Match(p project.Project) bool {
	return Matches(p, c.Tags, c.Search)
}

// IsZero reports whether c lets everything through.
func (c Criteria) IsZero() bool {
	return c.Tags.Empty() && strings.TrimSpace(c.Search) == ""
}

// Apply returns the projects matching c, in input order.
func Apply(projects []project.Project, c Criteria) []project.Project {
	out := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Query parameter names shared by the listing page and the JSON API.
const (
	TagParam    = "tag"
	SearchParam = "q"
)

// FromQuery reads ?tag=a&tag=b&q=text. Unknown params are ignored.
func FromQuery(v url.Values) Criteria {
	return Criteria{
		Tags:   NewSelection(v[TagParam]...),
		Search: strings.TrimSpace(v.Get(SearchParam)),
	}
}

// Query encodes c back into URL parameters, tags sorted.
func (c Criteria) Query() url.Values {
	v := url.Values{}
	for _, t := range c.Tags.Tags() {
		v.Add(TagParam, t)
	}
	if s := strings.TrimSpace(c.Search); s != "" {
		v.Set(SearchParam, s)
	}
	return v
}

// ToggleURL is the query string ("?..." or "") a chip for tag links to.
func (c Criteria) ToggleURL(tag string) string {
	next := Criteria{Tags: c.Tags.Toggle(tag), Search: c.Search}
	if enc := next.Query().Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}
