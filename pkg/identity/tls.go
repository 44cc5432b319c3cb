package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// certValidity is generous on purpose: this certificate only anchors the
// TLS session for local transfers and is regenerated every process start,
// so there is no rotation concern that would call for a shorter window.
const certValidity = 10 * 365 * 24 * time.Hour

// generateSelfSignedCert mints an ECDSA P-256 self-signed certificate
// with subject CN "localhost", grounded on the EC-key PEM shape used by
// MoYoez-localsend-go's tool.GenerateTLSCert. The fingerprint is the hex
// SHA-256 of the DER-encoded certificate, per spec §4.1.
func generateSelfSignedCert() (*tls.Certificate, string, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, "", protocol.NewError(protocol.IO, "generate TLS key", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, "", protocol.NewError(protocol.IO, "generate certificate serial", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(certValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, "", protocol.NewError(protocol.IO, "create self-signed certificate", err)
	}

	sum := sha256.Sum256(der)
	fingerprint := hex.EncodeToString(sum[:])

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
	return &cert, fingerprint, nil
}
