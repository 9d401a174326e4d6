package site

import (
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

// Profile is the owner-level content from site.yaml: who the site is about
// and what the about, contact and resume pages show.
type Profile struct {
	Name        string        `yaml:"name"`
	Headline    string        `yaml:"headline"`
	Intro       string        `yaml:"intro"`
	Description string        `yaml:"description"`
	Portrait    string        `yaml:"portrait"`
	About       string        `yaml:"about"`
	Focus       []string      `yaml:"focus"`
	Skills      []SkillGroup  `yaml:"skills"`
	Experience  []Milestone   `yaml:"experience"`
	Education   []Milestone   `yaml:"education"`
	Email       string        `yaml:"email"`
	Contact     []ContactLink `yaml:"contact"`
	Resume      string        `yaml:"resume"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

// Milestone is one timeline row on the about page.
type Milestone struct {
	Period       string   `yaml:"period"`
	Title        string   `yaml:"title"`
	Organization string   `yaml:"organization"`
	Description  string   `yaml:"description"`
	Tags         []string `yaml:"tags"`
}

type ContactLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

const profileFile = "site.yaml"

func loadProfile(bundle fs.FS) (Profile, error) {
	var p Profile
	raw, err := fs.ReadFile(bundle, profileFile)
	if err != nil {
		return p, xerrors.Wrapf(err, "read %s", profileFile)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, xerrors.Wrapf(err, "parse %s", profileFile)
	}
	if strings.TrimSpace(p.Name) == "" {
		return p, xerrors.Newf("%s: name is required", profileFile)
	}
	return p, nil
}
