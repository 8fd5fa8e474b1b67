package pki

import "errors"

var (
	// ErrCertificateNotFound is returned when PEM data holds no CERTIFICATE block.
	ErrCertificateNotFound = errors.New("no certificate found in PEM data")

	// ErrNotRSAPublicKey is returned when a certificate does not carry an RSA public key.
	ErrNotRSAPublicKey = errors.New("certificate public key is not RSA")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// KeyDecodingError reports private key text that is not a PEM encoded RSA key.
type KeyDecodingError struct {
	Err error
}

func (e *KeyDecodingError) Error() string {
	return "failed to decode private key: " + e.Err.Error()
}

func (e *KeyDecodingError) Unwrap() error {
	return e.Err
}

// SigningError reports any failure while producing a signature, including
// a *KeyDecodingError for unusable key material.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return "failed to sign assertion: " + e.Err.Error()
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
