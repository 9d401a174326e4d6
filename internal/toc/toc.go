// Package toc derives the "On this page" outline of a project body and the
// heading anchor IDs the rendered page uses.
package toc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Slug lower-cases text and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens at either end.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// idSet hands out unique IDs in document order: the first use of a slug
// keeps it bare, repeats get -1, -2, ... An empty slug stays empty.
type idSet map[string]struct{}

func (s idSet) next(base string) string {
	if base == "" {
		return ""
	}
	id := base
	for i := 1; ; i++ {
		if _, taken := s[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(i)
	}
	s[id] = struct{}{}
	return id
}

var md = goldmark.New()

// Extract returns the ATX level 2 and 3 headings of a Markdown document in
// order. Headings inside code blocks are not headings and are skipped.
func Extract(src []byte) []Heading {
	return Collect(md.Parser().Parse(text.NewReader(src)), src)
}

// Collect walks an already parsed document and returns its outline. It also
// sets the id attribute of every outlined heading, so rendering doc afterwards
// produces anchors that match. Setext headings, other levels and headings
// whose text slugs to nothing get no id.
func Collect(doc ast.Node, src []byte) []Heading {
	var out []Heading
	ids := idSet{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if (h.Level != 2 && h.Level != 3) || !isATX(h, src) {
			return ast.WalkSkipChildren, nil
		}
		txt := plainText(h, src)
		if txt == "" {
			return ast.WalkSkipChildren, nil
		}
		id := ids.next(Slug(txt))
		if id != "" {
			h.SetAttributeString("id", []byte(id))
		}
		out = append(out, Heading{ID: id, Text: txt, Level: h.Level})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// isATX reports whether h was written with leading '#'s. goldmark records
// only the content segment, so look at what precedes it on its line.
func isATX(h *ast.Heading, src []byte) bool {
	lines := h.Lines()
	if lines.Len() == 0 {
		// setext headings always have content
		return true
	}
	start := lines.At(0).Start
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	return bytes.IndexByte(src[lineStart:start], '#') >= 0
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
