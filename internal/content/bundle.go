package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

const (
	maxBundleSize   int64 = 50 << 20
	maxSingleFile   int64 = 10 << 20
	maxTotalExtract int64 = 100 << 20
)

// readWithHash reads at most maxSize bytes from r and returns them with
// their hex SHA-256.
func readWithHash(r io.Reader, maxSize int64) ([]byte, string, error) {
	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(io.LimitReader(r, maxSize+1), h))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", xerrors.Newf("bundle exceeds %d bytes", maxSize)
	}
	return data, hex.EncodeToString(h.Sum(nil)), nil
}

// bundleRoot strips a single top-level directory ("site/projects/x.md")
// when the archive was packed that way.
func bundleRoot(names []string) string {
	prefix := ""
	for _, n := range names {
		first, _, ok := strings.Cut(n, "/")
		if !ok {
			return ""
		}
		if prefix == "" {
			prefix = first
		} else if prefix != first {
			return ""
		}
	}
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// extractTarGz unpacks a gzip'd tar into memory. Only regular files and
// directories are accepted.
func extractTarGz(data []byte) (fs.FS, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Wrap(err, "open gzip")
	}
	defer gr.Close()

	files := make(map[string][]byte)
	var names []string
	var total int64

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.Wrap(err, "read tar header")
		}

		name, err := cleanArchivePath(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			if hdr.Size > maxSingleFile {
				return nil, xerrors.Newf("%s exceeds per-file limit (%d > %d)", name, hdr.Size, maxSingleFile)
			}
			body, err := io.ReadAll(io.LimitReader(tr, maxSingleFile+1))
			if err != nil {
				return nil, xerrors.Wrapf(err, "read %s", name)
			}
			if int64(len(body)) > maxSingleFile {
				return nil, xerrors.Newf("%s exceeds per-file limit", name)
			}
			total += int64(len(body))
			if total > maxTotalExtract {
				return nil, xerrors.Newf("bundle expands past %d bytes", maxTotalExtract)
			}
			files[name] = body
			names = append(names, name)
		default:
			return nil, xerrors.Newf("unsupported entry %s (type %d)", name, hdr.Typeflag)
		}
	}

	root := bundleRoot(names)
	mfs := make(fstest.MapFS, len(files))
	for name, body := range files {
		mfs[strings.TrimPrefix(name, root)] = &fstest.MapFile{Data: body, Mode: 0o444}
	}
	return mfs, nil
}

// cleanArchivePath returns "" for entries to skip.
func cleanArchivePath(name string) (string, error) {
	if strings.ContainsAny(name, "\\\x00") {
		return "", xerrors.Newf("invalid path in archive: %q", name)
	}
	if path.IsAbs(name) {
		return "", xerrors.Newf("absolute path in archive: %s", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", xerrors.Newf("path traversal in archive: %s", name)
		}
	}
	clean := path.Clean(name)
	if clean == "." {
		return "", nil
	}
	if !fs.ValidPath(clean) {
		return "", xerrors.Newf("invalid path in archive: %q", name)
	}
	return clean, nil
}
