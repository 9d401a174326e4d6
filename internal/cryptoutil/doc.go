// Package cryptoutil verifies content bundle integrity: SHA-256 digests
// compared in constant time, and detached signatures checked against a KMS
// asymmetric key (ECDSA P-256/P-384 or RSA-PSS).
package cryptoutil
