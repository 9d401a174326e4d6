// Package project models portfolio project entries and the read-only
// repository built from a directory of front-matter Markdown files.
package project

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Links struct {
	Demo      string `yaml:"demo" json:"demo,omitempty"`
	GitHub    string `yaml:"github" json:"github,omitempty"`
	Figma     string `yaml:"figma" json:"figma,omitempty"`
	CaseStudy string `yaml:"caseStudy" json:"caseStudy,omitempty"`
}

func (l Links) Empty() bool {
	return l == Links{}
}

// Project is one entry. Slug comes from the source filename, everything else
// from front matter, except Body and ReadingTime.
type Project struct {
	Slug             string   `yaml:"-" json:"slug"`
	Title            string   `yaml:"title" json:"title"`
	Date             Date     `yaml:"date" json:"date"`
	ShortDescription string   `yaml:"shortDescription" json:"shortDescription"`
	Role             string   `yaml:"role" json:"role"`
	Tools            []string `yaml:"tools" json:"tools"`
	HeroImage        string   `yaml:"heroImage" json:"heroImage"`
	CardImage        string   `yaml:"cardImage" json:"cardImage,omitempty"`
	GalleryImages    []string `yaml:"galleryImages" json:"galleryImages,omitempty"`
	Links            Links    `yaml:"links" json:"links"`
	Tags             []string `yaml:"tags" json:"tags"`
	Featured         bool     `yaml:"featured" json:"featured"`

	Body        string `yaml:"-" json:"-"`
	ReadingTime string `yaml:"-" json:"readingTime"`
}

// Card returns CardImage, falling back to HeroImage.
func (p Project) Card() string {
	if p.CardImage != "" {
		return p.CardImage
	}
	return p.HeroImage
}

// HasTag is an exact, case-sensitive match.
func (p Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// missing lists required front matter keys that are empty. Tools and tags
// must be present but may be empty lists ("tags: []").
func (p Project) missing() []string {
	var out []string
	if strings.TrimSpace(p.Title) == "" {
		out = append(out, "title")
	}
	if p.Date.IsZero() {
		out = append(out, "date")
	}
	if strings.TrimSpace(p.ShortDescription) == "" {
		out = append(out, "shortDescription")
	}
	if strings.TrimSpace(p.Role) == "" {
		out = append(out, "role")
	}
	if p.Tools == nil {
		out = append(out, "tools")
	}
	if strings.TrimSpace(p.HeroImage) == "" {
		out = append(out, "heroImage")
	}
	if p.Tags == nil {
		out = append(out, "tags")
	}
	return out
}

const wordsPerMinute = 200

// ReadingTime estimates how long body takes to read, as "N min read".
// Any words round up to at least one minute; an empty body is "0 min read".
func ReadingTime(body string) string {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return fmt.Sprintf("%d min read", minutes)
}

var dateLayouts = []string{"2006-01-02", "2006-01", time.RFC3339}

// Date is a publication date. It accepts YYYY-MM-DD, YYYY-MM and RFC 3339
// in front matter.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q (want YYYY-MM-DD, YYYY-MM or RFC 3339)", s)
}

func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", n.Line)
	}
	parsed, err := ParseDate(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON accepts the layouts ParseDate does, so API output reads back.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Display renders the date the way project pages show it.
func (d Date) Display() string {
	return d.Format("January 2006")
}
