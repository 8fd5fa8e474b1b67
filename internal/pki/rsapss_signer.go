package pki

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SaltLength is the RSA-PSS salt length in bytes. It matches the salt the Vault
// Cloud Foundry auth method produces for a 2048 bit instance key (the maximum
// for that modulus with SHA-256). Changing it breaks logins against verifiers
// that pin the salt length.
const SaltLength = 222

// signingMethod is RSASSA-PSS with SHA-256 and MGF1(SHA-256). Verification
// detects the salt length the same way the Vault verifier does.
var signingMethod = &jwt.SigningMethodRSAPSS{
	SigningMethodRSA: &jwt.SigningMethodRSA{Name: "PS256", Hash: crypto.SHA256},
	Options: &rsa.PSSOptions{
		SaltLength: SaltLength,
		Hash:       crypto.SHA256,
	},
	VerifyOptions: &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
		Hash:       crypto.SHA256,
	},
}

var _ AssertionSigner = (*RSAPSSSigner)(nil)

// RSAPSSSigner implements AssertionSigner with RSASSA-PSS over SHA-256.
// It holds no state and is safe for concurrent use.
type RSAPSSSigner struct{}

// NewRSAPSSSigner creates a new RSAPSSSigner.
func NewRSAPSSSigner() *RSAPSSSigner {
	return &RSAPSSSigner{}
}

// Sign signs payload with the RSA key in privateKeyPEM. The signature is encoded
// as URL-safe base64 without padding. PSS uses a random salt so two signatures
// over the same payload differ, and both verify.
func (s *RSAPSSSigner) Sign(payload []byte, privateKeyPEM string) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", &SigningError{Err: err}
	}

	sig, err := signingMethod.Sign(string(payload), key)
	if err != nil {
		return "", &SigningError{Err: err}
	}

	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// ParsePrivateKey decodes a PEM encoded RSA private key in PKCS#1 or PKCS#8 form.
// All failures are returned as a *KeyDecodingError.
func ParsePrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(strings.TrimSpace(privateKeyPEM)))
	if err != nil {
		return nil, &KeyDecodingError{Err: err}
	}

	return key, nil
}

// Verify checks that signature is a valid assertion signature of payload for publicKey.
// Padded and unpadded URL-safe base64 are both accepted.
func Verify(payload []byte, signature string, publicKey *rsa.PublicKey) error {
	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(signature), "="))
	if err != nil {
		return fmt.Errorf("%w: failed to decode signature: %v", ErrInvalidSignature, err)
	}

	if err := signingMethod.Verify(string(payload), sig, publicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return nil
}
