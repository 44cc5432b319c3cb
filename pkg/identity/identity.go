// Package identity bootstraps a node's stable fingerprint: a self-signed
// TLS certificate when HTTPS is enabled, or a random UUID otherwise. The
// fingerprint is immutable for the process lifetime and is the identity
// discovery dedup keys on.
package identity

import (
	"crypto/tls"

	"github.com/google/uuid"
)

// Identity holds everything a node needs to advertise and, if HTTPS is
// enabled, serve itself: the fingerprint and, when applicable, the
// bootstrap certificate.
type Identity struct {
	Fingerprint string
	HTTPS       bool
	Certificate *tls.Certificate
}

// New generates a node identity. When https is true, a self-signed
// certificate is generated and its DER SHA-256 hash becomes the
// fingerprint; certificate generation failure is fatal, matching the
// spec's "failure to generate the certificate is fatal at startup".
// When https is false, the fingerprint is a random UUIDv4.
func New(https bool) (*Identity, error) {
	if !https {
		return &Identity{Fingerprint: uuid.NewString(), HTTPS: false}, nil
	}

	cert, fingerprint, err := generateSelfSignedCert()
	if err != nil {
		return nil, err
	}
	return &Identity{
		Fingerprint: fingerprint,
		HTTPS:       true,
		Certificate: cert,
	}, nil
}
