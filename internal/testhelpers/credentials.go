// Package testhelpers provides fixtures shared by the package tests, chiefly
// Cloud Foundry style instance credentials generated on the fly.
package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Instance identifiers embedded in generated certificates.
const (
	InstanceID = "2d1b8a2e-6a6f-4b8e-7c55-1f3e"
	AppID      = "b0d9ad4e-e8d1-4c2a-9c7e-6e2f1b0f2a41"
	SpaceID    = "3d2eba6b-ef19-44d5-91dd-1975b0db5cc9"
	OrgID      = "34a878d0-c2f9-4521-ba73-a9f664e82c7bf"
)

// InstanceCredentials holds a generated instance key pair and certificate.
type InstanceCredentials struct {
	Key            *rsa.PrivateKey
	Certificate    *x509.Certificate
	CertificatePEM string
	KeyPEM         string
}

// NewInstanceCredentials generates a 2048 bit RSA key and a self-signed
// certificate whose subject follows the Cloud Foundry instance identity layout.
// The key is PKCS#1 encoded, as written to instance.key by Diego.
func NewInstanceCredentials(t testing.TB) *InstanceCredentials {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return newCredentials(t, key, string(keyPEM))
}

// NewInstanceCredentialsPKCS8 is NewInstanceCredentials with a PKCS#8 encoded key.
func NewInstanceCredentialsPKCS8(t testing.TB) *InstanceCredentials {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	})

	return newCredentials(t, key, string(keyPEM))
}

func newCredentials(t testing.TB, key *rsa.PrivateKey, keyPEM string) *InstanceCredentials {
	t.Helper()

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(now.UnixNano()),
		Subject: pkix.Name{
			CommonName: InstanceID,
			OrganizationalUnit: []string{
				"organization:" + OrgID,
				"space:" + SpaceID,
				"app:" + AppID,
			},
		},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: der,
	})

	return &InstanceCredentials{
		Key:            key,
		Certificate:    cert,
		CertificatePEM: string(certPEM),
		KeyPEM:         keyPEM,
	}
}
