package content

import (
	"io/fs"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

// ValidationOptions gates which snapshots may replace the active one.
type ValidationOptions struct {
	// MinProjects rejects snapshots with fewer projects. 0 disables.
	MinProjects int
	// RequiredFiles must exist and be non-empty in the rendered tree.
	RequiredFiles []string
}

func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MinProjects:   1,
		RequiredFiles: []string{"index.html", "projects/index.html", "404.html", "sitemap.xml"},
	}
}

// ValidateSnapshot is run on every new snapshot before it is swapped in.
func ValidateSnapshot(snap *Snapshot, opts ValidationOptions) error {
	if snap == nil {
		return xerrors.New("validate: snapshot is nil")
	}
	if snap.FS == nil || snap.Site == nil {
		return xerrors.New("validate: snapshot is not rendered")
	}
	for _, name := range opts.RequiredFiles {
		info, err := fs.Stat(snap.FS, name)
		if err != nil {
			return xerrors.Wrapf(err, "validate: %s", name)
		}
		if info.IsDir() || info.Size() == 0 {
			return xerrors.Newf("validate: %s is empty", name)
		}
	}
	if n := snap.Site.Projects.Len(); n < opts.MinProjects {
		return xerrors.Newf("validate: bundle has %d projects, minimum is %d", n, opts.MinProjects)
	}
	return nil
}
