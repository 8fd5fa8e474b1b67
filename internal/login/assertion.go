package login

import (
	"strings"
	"time"
)

// Login request field names.
const (
	FieldRole         = "role"
	FieldSigningTime  = "signing_time"
	FieldInstanceCert = "cf_instance_cert"
	FieldSignature    = "signature"
)

const signingTimeLayout = "2006-01-02T15:04:05Z"

// FormatSigningTime renders t in UTC as RFC 3339 with whole seconds, the form
// Vault parses and the form that is signed.
func FormatSigningTime(t time.Time) string {
	return t.UTC().Format(signingTimeLayout)
}

// CanonicalPayload is the exact text the assertion signature covers: the
// trimmed signing time, certificate and role concatenated with no separator.
func CanonicalPayload(signingTime, certificate, role string) string {
	return strings.TrimSpace(signingTime) + strings.TrimSpace(certificate) + strings.TrimSpace(role)
}

// Assertion is a signed login assertion. It is built fresh for every attempt
// because Vault only accepts signing times within a short window.
type Assertion struct {
	Role        string
	SigningTime string
	Certificate string
	Signature   string
}

// Payload returns the canonical payload the signature covers.
func (a *Assertion) Payload() string {
	return CanonicalPayload(a.SigningTime, a.Certificate, a.Role)
}

// Request returns the login request body.
func (a *Assertion) Request() map[string]string {
	return map[string]string{
		FieldRole:         strings.TrimSpace(a.Role),
		FieldSigningTime:  strings.TrimSpace(a.SigningTime),
		FieldInstanceCert: strings.TrimSpace(a.Certificate),
		FieldSignature:    strings.TrimSpace(a.Signature),
	}
}
