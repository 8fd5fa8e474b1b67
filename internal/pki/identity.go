package pki

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// Subject OU prefixes used by Cloud Foundry instance identity certificates.
const (
	ouPrefixApp          = "app:"
	ouPrefixSpace        = "space:"
	ouPrefixOrganization = "organization:"
)

// InstanceIdentity describes the workload named by an instance certificate.
// It is informational only: nothing here is validated against a trust chain.
type InstanceIdentity struct {
	InstanceID  string
	AppID       string
	SpaceID     string
	OrgID       string
	Fingerprint string
	NotAfter    time.Time
}

// ParseCertificate returns the first certificate in certPEM. Instance credential
// files carry the leaf followed by its intermediates.
func ParseCertificate(certPEM string) (*x509.Certificate, error) {
	rest := []byte(certPEM)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, ErrCertificateNotFound
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		return cert, nil
	}
}

// ParseInstanceIdentity extracts the instance, app, space and organization
// identifiers from the subject of the leaf certificate in certPEM.
func ParseInstanceIdentity(certPEM string) (*InstanceIdentity, error) {
	cert, err := ParseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	id := &InstanceIdentity{
		InstanceID:  cert.Subject.CommonName,
		Fingerprint: Fingerprint(cert),
		NotAfter:    cert.NotAfter,
	}

	for _, ou := range cert.Subject.OrganizationalUnit {
		switch {
		case strings.HasPrefix(ou, ouPrefixApp):
			id.AppID = strings.TrimPrefix(ou, ouPrefixApp)
		case strings.HasPrefix(ou, ouPrefixSpace):
			id.SpaceID = strings.TrimPrefix(ou, ouPrefixSpace)
		case strings.HasPrefix(ou, ouPrefixOrganization):
			id.OrgID = strings.TrimPrefix(ou, ouPrefixOrganization)
		}
	}

	return id, nil
}

// Fingerprint returns the Base58 encoded SHA-256 of the certificate DER.
func Fingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return base58.Encode(hash[:])
}

// PublicKey returns the RSA public key of the leaf certificate in certPEM.
func PublicKey(certPEM string) (*rsa.PublicKey, error) {
	cert, err := ParseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSAPublicKey
	}

	return pub, nil
}
