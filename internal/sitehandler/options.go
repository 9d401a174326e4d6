package sitehandler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/folio-labs/folio-web/internal/content"
	"github.com/folio-labs/folio-web/internal/log"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// SnapshotProvider is satisfied by content.Manager.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

type Options struct {
	Logger  log.Logger
	Content SnapshotProvider

	// FallbackFS holds the maintenance page and a plain 404 for when no
	// snapshot is active or the snapshot lacks its own.
	FallbackFS fs.FS

	MaintenanceFile string // in FallbackFS, default "maintenance.html"
	Fallback404File string // in FallbackFS, default "404.html"
	Site404File     string // in the snapshot, default "404.html"

	// Cache policies by extension. Rendered pages revalidate against the
	// snapshot ETag; static files are not fingerprinted so they get a day.
	HTMLCacheControl  string // default "no-cache"
	AssetCacheControl string // default "public, max-age=86400"
	OtherCacheControl string // default "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.MaintenanceFile == "" {
		o.MaintenanceFile = "maintenance.html"
	}
	if o.Fallback404File == "" {
		o.Fallback404File = "404.html"
	}
	if o.Site404File == "" {
		o.Site404File = "404.html"
	}
	if o.HTMLCacheControl == "" {
		o.HTMLCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=86400"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

func (o *Options) validate() error {
	if o.Content == nil {
		return fmt.Errorf("%w: Content is nil", ErrInvalidOptions)
	}
	if o.FallbackFS == nil {
		return fmt.Errorf("%w: FallbackFS is nil", ErrInvalidOptions)
	}
	// fail at boot if the binary was packaged without it
	if _, err := fs.Stat(o.FallbackFS, o.MaintenanceFile); err != nil {
		return fmt.Errorf("%w: missing %q in fallback FS: %w", ErrInvalidOptions, o.MaintenanceFile, err)
	}
	return nil
}
