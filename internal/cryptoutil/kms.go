package cryptoutil

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

var ErrBadSignature = errors.New("signature verification failed")

// KeyFetcher is the part of the KMS API the verifier uses. *kms.Client
// satisfies it.
type KeyFetcher interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// KMSVerifier checks detached signatures locally with the public half of a
// KMS signing key. The key is fetched once and cached.
type KMSVerifier struct {
	client KeyFetcher
	keyID  string

	// AllowPKCS1v15 accepts RSA PKCS#1 v1.5 signatures when PSS fails.
	AllowPKCS1v15 bool

	mu     sync.Mutex
	pubKey crypto.PublicKey
}

func NewKMSVerifier(client KeyFetcher, keyID string) *KMSVerifier {
	return &KMSVerifier{client: client, keyID: keyID}
}

func (v *KMSVerifier) PublicKey(ctx context.Context) (crypto.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pubKey != nil {
		return v.pubKey, nil
	}
	if v.client == nil {
		return nil, xerrors.New("kms client is not configured")
	}

	out, err := v.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(v.keyID)})
	if err != nil {
		return nil, xerrors.Wrapf(err, "kms get public key %s", v.keyID)
	}
	if out.KeyUsage != kmstypes.KeyUsageTypeSignVerify {
		return nil, xerrors.Newf("kms key %s has KeyUsage=%s, expected SIGN_VERIFY", v.keyID, out.KeyUsage)
	}
	pub, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, xerrors.Wrap(err, "parse kms public key")
	}
	v.pubKey = pub
	return pub, nil
}

// VerifySignature checks signature over message. ECDSA keys hash with the
// curve's matching SHA-2 size, RSA keys with SHA-256.
func (v *KMSVerifier) VerifySignature(ctx context.Context, message, signature []byte) error {
	pub, err := v.PublicKey(ctx)
	if err != nil {
		return err
	}
	return Verify(pub, message, signature, v.AllowPKCS1v15)
}

// Verify checks signature over message with pub.
func Verify(pub crypto.PublicKey, message, signature []byte, allowPKCS1v15 bool) error {
	switch key := pub.(type) {
	case *ecdsa.PublicKey:
		digest, err := ecdsaDigest(key, message)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(key, digest, signature) {
			return xerrors.Newf("%w: ecdsa %s", ErrBadSignature, key.Curve.Params().Name)
		}
		return nil
	case *rsa.PublicKey:
		digest := sha256.Sum256(message)
		err := rsa.VerifyPSS(key, crypto.SHA256, digest[:], signature, nil)
		if err != nil && allowPKCS1v15 {
			err = rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature)
		}
		if err != nil {
			return xerrors.Newf("%w: rsa: %w", ErrBadSignature, err)
		}
		return nil
	default:
		return xerrors.Newf("unsupported public key type %T", pub)
	}
}

func ecdsaDigest(key *ecdsa.PublicKey, message []byte) ([]byte, error) {
	switch key.Curve {
	case elliptic.P256():
		d := sha256.Sum256(message)
		return d[:], nil
	case elliptic.P384():
		d := sha512.Sum384(message)
		return d[:], nil
	}
	return nil, xerrors.Newf("unsupported ECDSA curve %s", key.Curve.Params().Name)
}
