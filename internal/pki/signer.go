package pki

// AssertionSigner signs login assertions with an instance private key.
// Implementations include RSAPSSSigner, which produces signatures in the form
// the Vault Cloud Foundry auth method verifies.
type AssertionSigner interface {
	// Sign decodes privateKeyPEM and returns the URL-safe base64 signature of payload.
	// Every failure is returned as a *SigningError.
	Sign(payload []byte, privateKeyPEM string) (string, error)
}
