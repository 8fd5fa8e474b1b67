// Package credentials supplies Cloud Foundry instance credentials, the
// certificate and private key PEM text, to the login flow.
//
// Diego rotates instance credentials in place well before they expire, so
// sources read the current content on every Fetch rather than once at startup.
// All sources in this package are safe for concurrent use.
package credentials

import (
	"context"
	"errors"
	"path/filepath"
)

// DefaultDir is where Diego writes instance credentials inside a container.
const DefaultDir = "/etc/cf-instance-credentials"

// ErrNotFound is returned when a credential file does not exist.
var ErrNotFound = errors.New("credential not found")

// Source returns the current PEM text of a credential.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) (string, error)

// Fetch calls f(ctx).
func (f SourceFunc) Fetch(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static returns a Source that always returns text.
func Static(text string) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		return text, nil
	})
}

// DefaultCertificate reads the instance certificate from DefaultDir.
func DefaultCertificate() *File {
	return NewFile(filepath.Join(DefaultDir, "instance.crt"))
}

// DefaultKey reads the instance private key from DefaultDir.
func DefaultKey() *File {
	return NewFile(filepath.Join(DefaultDir, "instance.key"))
}
