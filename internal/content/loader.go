package content

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/folio-labs/folio-web/internal/cryptoutil"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/site"
	"github.com/folio-labs/folio-web/internal/webassets"
	"github.com/folio-labs/folio-web/internal/xerrors"
)

// LoadSeed builds the bundle embedded in the binary.
func LoadSeed(opts site.Options) (*Snapshot, error) {
	seed, ok := webassets.SeedFS()
	if !ok {
		return nil, xerrors.New("no embedded seed bundle")
	}
	return Build(seed, opts, Meta{Source: SourceSeed})
}

// LoadDir builds a bundle from a directory on disk.
func LoadDir(dir string, opts site.Options) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, xerrors.Wrapf(err, "content dir %s", dir)
	}
	if !info.IsDir() {
		return nil, xerrors.Newf("content dir %s is not a directory", dir)
	}
	return Build(os.DirFS(dir), opts, Meta{Source: SourceDisk})
}

// S3API and SSMAPI are the calls the Loader makes. The SDK clients satisfy
// them.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SignatureVerifier checks a detached signature over a bundle digest.
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, message, signature []byte) error
}

type LoaderOptions struct {
	Logger log.Logger

	// SSMParam holds the hex SHA-256 of the current bundle.
	SSMParam string
	// Bundles live at s3://S3Bucket/S3Prefix/<hash>.tar.gz.
	S3Bucket string
	S3Prefix string

	S3  S3API
	SSM SSMAPI

	// Verifier, when set, requires <hash>.tar.gz.sig next to every bundle:
	// a signature over the raw 32-byte digest.
	Verifier SignatureVerifier

	Site site.Options
}

// Loader fetches content bundles from S3.
type Loader struct {
	opts   LoaderOptions
	logger log.Logger
}

func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.SSMParam == "" {
		return nil, xerrors.New("content loader: SSMParam is required")
	}
	if opts.S3Bucket == "" {
		return nil, xerrors.New("content loader: S3Bucket is required")
	}
	if opts.S3 == nil || opts.SSM == nil {
		return nil, xerrors.New("content loader: S3 and SSM clients are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	opts.S3Prefix = strings.Trim(opts.S3Prefix, "/")
	return &Loader{opts: opts, logger: opts.Logger}, nil
}

// FetchCurrentBundleHash reads the published bundle hash from SSM.
func (l *Loader) FetchCurrentBundleHash(ctx context.Context) (string, error) {
	out, err := l.opts.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(l.opts.SSMParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", l.opts.SSMParam)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", l.opts.SSMParam)
	}
	hash := strings.ToLower(strings.TrimSpace(*out.Parameter.Value))
	if !cryptoutil.IsSHA256Hex(hash) {
		return "", xerrors.Newf("SSM parameter %s is not a sha256 hex digest", l.opts.SSMParam)
	}
	return hash, nil
}

func (l *Loader) key(hash string) string {
	if l.opts.S3Prefix == "" {
		return hash + ".tar.gz"
	}
	return l.opts.S3Prefix + "/" + hash + ".tar.gz"
}

func (l *Loader) getObject(ctx context.Context, key string, limit int64) ([]byte, string, error) {
	out, err := l.opts.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.opts.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "get s3://%s/%s", l.opts.S3Bucket, key)
	}
	defer out.Body.Close()
	data, sum, err := readWithHash(out.Body, limit)
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "read s3://%s/%s", l.opts.S3Bucket, key)
	}
	return data, sum, nil
}

// Load fetches and builds whatever bundle SSM currently points at.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	hash, err := l.FetchCurrentBundleHash(ctx)
	if err != nil {
		return nil, err
	}
	return l.LoadHash(ctx, hash)
}

// LoadHash downloads <hash>.tar.gz, checks its digest (and signature when a
// verifier is configured), extracts it in memory and builds the site.
func (l *Loader) LoadHash(ctx context.Context, hash string) (*Snapshot, error) {
	if !cryptoutil.IsSHA256Hex(hash) {
		return nil, xerrors.Newf("invalid bundle hash %q", hash)
	}
	key := l.key(hash)
	l.logger.Info(ctx, "downloading content bundle", "bucket", l.opts.S3Bucket, "key", key)

	data, sum, err := l.getObject(ctx, key, maxBundleSize)
	if err != nil {
		return nil, err
	}
	if !cryptoutil.HashEqual(sum, hash) {
		return nil, xerrors.Newf("bundle checksum mismatch: expected %s, got %s", hash, sum)
	}

	signed := false
	if l.opts.Verifier != nil {
		sig, _, err := l.getObject(ctx, key+".sig", 64<<10)
		if err != nil {
			return nil, xerrors.Wrap(err, "fetch bundle signature")
		}
		digest := cryptoutil.SHA256Digest(data)
		if err := l.opts.Verifier.VerifySignature(ctx, digest, sig); err != nil {
			return nil, xerrors.Wrapf(err, "verify bundle %s", truncHash(hash))
		}
		signed = true
	}

	bundle, err := extractTarGz(data)
	if err != nil {
		return nil, xerrors.Wrap(err, "extract bundle")
	}
	snap, err := Build(bundle, l.opts.Site, Meta{
		Hash:       hash,
		Source:     SourceS3,
		Signed:     signed,
		VerifiedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "build bundle %s", truncHash(hash))
	}

	l.logger.Info(ctx, "loaded content bundle",
		"hash", truncHash(hash),
		"version", snap.Meta.Version,
		"projects", snap.Site.Projects.Len(),
		"signed", signed,
	)
	return snap, nil
}
