package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io/fs"
	"strings"
	"testing"
)

func TestExtractTarGz(t *testing.T) {
	data := makeTarGz(t, "", bundleFiles("v1"))
	fsys, err := extractTarGz(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := fs.ReadFile(fsys, "version.txt")
	if err != nil || strings.TrimSpace(string(got)) != "v1" {
		t.Fatalf("version.txt = %q, %v", got, err)
	}
}

func TestExtractTarGz_StripsSingleRoot(t *testing.T) {
	data := makeTarGz(t, "site/", bundleFiles("v1"))
	fsys, err := extractTarGz(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Stat(fsys, "site.yaml"); err != nil {
		t.Fatalf("root not stripped: %v", err)
	}
}

func TestExtractTarGz_Rejects(t *testing.T) {
	tests := map[string]*tar.Header{
		"traversal": {Name: "../etc/passwd", Typeflag: tar.TypeReg, Size: 1, Mode: 0o644},
		"absolute":  {Name: "/etc/passwd", Typeflag: tar.TypeReg, Size: 1, Mode: 0o644},
		"symlink":   {Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd", Mode: 0o777},
		"backslash": {Name: `a\..\b`, Typeflag: tar.TypeReg, Size: 1, Mode: 0o644},
		"too big":   {Name: "big.bin", Typeflag: tar.TypeReg, Size: maxSingleFile + 1, Mode: 0o644},
	}
	for name, hdr := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			tw := tar.NewWriter(gw)
			if err := tw.WriteHeader(hdr); err != nil {
				t.Fatal(err)
			}
			if hdr.Typeflag == tar.TypeReg && hdr.Size == 1 {
				_, _ = tw.Write([]byte("x"))
			}
			// oversized entries are rejected from the header alone
			_ = tw.Flush()
			_ = gw.Close()
			if _, err := extractTarGz(buf.Bytes()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestExtractTarGz_NotGzip(t *testing.T) {
	if _, err := extractTarGz([]byte("plain text")); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadWithHash_Limit(t *testing.T) {
	if _, _, err := readWithHash(strings.NewReader("12345"), 4); err == nil {
		t.Fatal("expected size error")
	}
	data, sum, err := readWithHash(strings.NewReader("1234"), 4)
	if err != nil || string(data) != "1234" || len(sum) != 64 {
		t.Fatalf("got %q %q %v", data, sum, err)
	}
}

func TestBundleRoot(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"site/a", "site/b/c"}, "site/"},
		{[]string{"site/a", "other/b"}, ""},
		{[]string{"site.yaml", "projects/a.md"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := bundleRoot(tt.names); got != tt.want {
			t.Errorf("bundleRoot(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}
