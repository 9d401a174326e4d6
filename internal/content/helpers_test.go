package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/folio-labs/folio-web/internal/cryptoutil"
	"github.com/folio-labs/folio-web/internal/site"
)

const (
	testBucket   = "folio-content"
	testPrefix   = "bundles"
	testSSMParam = "/folio/content/current"
)

func testSiteOptions() site.Options {
	return site.Options{
		BaseURL: "https://folio.example.com",
		Now:     func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) },
	}
}

func projectDoc(title, date string) string {
	return "---\ntitle: " + title + "\ndate: " + date +
		"\nshortDescription: d\nrole: r\nheroImage: /static/h.png\ntools: [Go]\ntags: [go]\n---\n## Overview\nbody\n"
}

// bundleFiles is a minimal valid content bundle.
func bundleFiles(version string) map[string]string {
	return map[string]string{
		"site.yaml":         "name: Test Person\n",
		"version.txt":       version + "\n",
		"projects/alpha.md": projectDoc("Alpha", "2025-08"),
		"projects/beta.md":  projectDoc("Beta", "2024-01-01"),
		"static/css/x.css":  "body{}",
	}
}

// makeTarGz packs files under an optional root directory.
func makeTarGz(t *testing.T, root string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		body := files[n]
		if err := tw.WriteHeader(&tar.Header{Name: root + n, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey: " + aws.ToString(in.Key))
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

// put stores a bundle under its own hash and returns the hash.
func (f *fakeS3) put(data []byte) string {
	hash := cryptoutil.SHA256Hex(data)
	f.mu.Lock()
	f.objects[testPrefix+"/"+hash+".tar.gz"] = data
	f.mu.Unlock()
	return hash
}

type fakeSSM struct {
	mu    sync.Mutex
	value string
	err   error
}

func (f *fakeSSM) set(v string) {
	f.mu.Lock()
	f.value, f.err = v, nil
	f.mu.Unlock()
}

func (f *fakeSSM) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSSM) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

func newTestLoader(t *testing.T, s3c *fakeS3, ssmc *fakeSSM, mutate ...func(*LoaderOptions)) *Loader {
	t.Helper()
	opts := LoaderOptions{
		SSMParam: testSSMParam,
		S3Bucket: testBucket,
		S3Prefix: "/" + testPrefix + "/",
		S3:       s3c,
		SSM:      ssmc,
		Site:     testSiteOptions(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	l, err := NewLoader(opts)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}
