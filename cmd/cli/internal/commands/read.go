package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfeidau/cfauth/internal/login"
	"github.com/wolfeidau/cfauth/internal/vault"
	"golang.org/x/oauth2"
)

type ReadCmd struct {
	VaultFlags      `embed:""`
	CredentialFlags `embed:""`

	Config string `help:"YAML config file, used for flags left empty" type:"path"`
	Path   string `arg:"" help:"Vault path to read, for example secret/data/app"`

	out io.Writer
}

// Run logs in and reads Path with the resulting token, printing the data
// block as JSON.
func (r *ReadCmd) Run(ctx context.Context, globals *Globals) error {
	fileCfg, err := loadConfig(r.Config)
	if err != nil {
		return err
	}
	r.VaultFlags.merge(fileCfg.Vault)
	r.CredentialFlags.merge(fileCfg.Login)

	defer setupTelemetry(ctx, globals)()

	hc, err := r.httpClient()
	if err != nil {
		return err
	}

	loginClient, err := vault.NewClient(r.VaultFlags.config(), vault.WithHTTPClient(hc))
	if err != nil {
		return err
	}

	cert, key, closeSources, err := r.CredentialFlags.sources()
	if err != nil {
		return fmt.Errorf("failed to open instance credentials: %w", err)
	}
	defer closeSources()

	cf, err := login.NewCloudFoundry(login.Config{
		Path:        r.Mount,
		Role:        r.Role,
		Certificate: cert,
		PrivateKey:  key,
	}, loginClient)
	if err != nil {
		return err
	}

	// NewClient caches the token until it expires and sends it as a bearer
	// token over hc's transport.
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hc), login.TokenSource(ctx, cf))
	authed.Timeout = hc.Timeout

	client, err := vault.NewClient(r.VaultFlags.config(), vault.WithHTTPClient(authed))
	if err != nil {
		return err
	}

	resp, err := client.Get(ctx, r.Path, nil)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.Path, err)
	}

	enc := json.NewEncoder(stdout(r.out))
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Data)
}
