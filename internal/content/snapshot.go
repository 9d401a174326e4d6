package content

import (
	"io/fs"
	"time"

	"github.com/folio-labs/folio-web/internal/site"
)

// Snapshot is one immutable, fully rendered version of the site.
type Snapshot struct {
	// FS is the rendered tree served to visitors.
	FS       fs.FS
	Site     *site.Site
	Meta     Meta
	LoadedAt time.Time
}

// Build renders bundle into a snapshot. The bundle version, when meta does
// not carry one, comes from the bundle's version.txt.
func Build(bundle fs.FS, opts site.Options, meta Meta) (*Snapshot, error) {
	s, err := site.Build(bundle, opts)
	if err != nil {
		return nil, err
	}
	if meta.Version == "" {
		meta.Version = s.Version
	}
	if meta.Source == "" {
		meta.Source = SourceUnknown
	}
	return &Snapshot{
		FS:       s.FS(),
		Site:     s,
		Meta:     meta,
		LoadedAt: time.Now().UTC(),
	}, nil
}
