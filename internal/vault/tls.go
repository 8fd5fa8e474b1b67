package vault

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCACertificates is returned when a CA bundle holds no PEM certificates.
var ErrNoCACertificates = errors.New("no CA certificates found")

// NewTLSConfig returns a client TLS configuration trusting only the PEM
// certificates in caPEM.
func NewTLSConfig(caPEM []byte) (*tls.Config, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, ErrNoCACertificates
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// LoadTLSConfig reads a CA bundle from path, as named by VAULT_CACERT.
func LoadTLSConfig(path string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	cfg, err := NewTLSConfig(caPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate %s: %w", path, err)
	}

	return cfg, nil
}
