package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wolfeidau/cfauth/internal/login"
	"github.com/wolfeidau/cfauth/internal/vault"
)

// errOffline is returned if an offline authenticator is asked to log in.
var errOffline = errors.New("signing does not contact vault")

type offlineTransport struct{}

func (offlineTransport) Post(context.Context, string, map[string]string, map[string]string) (*vault.Response, error) {
	return nil, errOffline
}

type SignCmd struct {
	CredentialFlags `embed:""`

	Config      string `help:"YAML config file, used for flags left empty" type:"path"`
	SigningTime string `help:"Signing time in RFC 3339 format, now when empty"`

	out io.Writer
}

// Run prints the login request body, ready for
// "vault write auth/cf/login @request.json".
func (s *SignCmd) Run(ctx context.Context) error {
	fileCfg, err := loadConfig(s.Config)
	if err != nil {
		return err
	}
	s.CredentialFlags.merge(fileCfg.Login)

	// a single read, no point watching
	s.Watch = false

	cert, key, closeSources, err := s.CredentialFlags.sources()
	if err != nil {
		return err
	}
	defer closeSources()

	opts := []login.Option{}
	if s.SigningTime != "" {
		signingTime, err := time.Parse(time.RFC3339, s.SigningTime)
		if err != nil {
			return fmt.Errorf("failed to parse signing time: %w", err)
		}
		opts = append(opts, login.WithClock(func() time.Time { return signingTime }))
	}

	cf, err := login.NewCloudFoundry(login.Config{
		Path:        s.Mount,
		Role:        s.Role,
		Certificate: cert,
		PrivateKey:  key,
	}, offlineTransport{}, opts...)
	if err != nil {
		return err
	}

	assertion, err := cf.Assert(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout(s.out))
	enc.SetIndent("", "  ")
	return enc.Encode(assertion.Request())
}
