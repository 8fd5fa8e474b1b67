package login

import (
	"errors"
	"fmt"
)

// MechanismCloudFoundry names the Cloud Foundry auth method in login errors.
const MechanismCloudFoundry = "CloudFoundry"

// ErrEmptyCredential is returned when a credential source yields only whitespace.
var ErrEmptyCredential = errors.New("credential is empty")

// CredentialUnavailableError reports that the certificate or private key could
// not be obtained from its source.
type CredentialUnavailableError struct {
	// Credential is "certificate" or "private key".
	Credential string
	Err        error
}

func (e *CredentialUnavailableError) Error() string {
	return fmt.Sprintf("instance %s unavailable: %v", e.Credential, e.Err)
}

func (e *CredentialUnavailableError) Unwrap() error {
	return e.Err
}

// LoginFailedError reports that Vault rejected the login or could not be
// reached. Err is the transport error; a *vault.ResponseError carries the
// HTTP status for callers deciding whether to retry.
type LoginFailedError struct {
	Mechanism string
	Err       error
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("cannot login using %s: %v", e.Mechanism, e.Err)
}

func (e *LoginFailedError) Unwrap() error {
	return e.Err
}
