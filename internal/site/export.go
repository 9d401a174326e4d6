package site

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

// Export writes the rendered tree below dir, creating it if needed. Existing
// files with the same names are overwritten; nothing else in dir is touched.
func (s *Site) Export(dir string) (int, error) {
	written := 0
	err := fs.WalkDir(s.files, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(s.files, name)
		if err != nil {
			return xerrors.Wrapf(err, "read %s", name)
		}
		dst := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return xerrors.Wrapf(err, "mkdir for %s", dst)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return xerrors.Wrapf(err, "write %s", dst)
		}
		written++
		return nil
	})
	return written, err
}
