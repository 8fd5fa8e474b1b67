package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/cfauth/internal/login"
	"github.com/wolfeidau/cfauth/internal/vault"
)

type LoginCmd struct {
	VaultFlags      `embed:""`
	CredentialFlags `embed:""`

	Config  string `help:"YAML config file, used for flags left empty" type:"path"`
	Retries uint   `help:"Retry transient login failures this many times" default:"0"`
	Format  string `help:"Output format" enum:"token,json" default:"token"`

	out           io.Writer
	retryInterval time.Duration
}

type loginOutput struct {
	ClientToken   string            `json:"client_token"`
	Accessor      string            `json:"accessor"`
	Policies      []string          `json:"policies"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	TokenType     string            `json:"token_type,omitempty"`
	LeaseDuration int64             `json:"lease_duration"`
	Renewable     bool              `json:"renewable"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	fileCfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	c.VaultFlags.merge(fileCfg.Vault)
	c.CredentialFlags.merge(fileCfg.Login)

	defer setupTelemetry(ctx, globals)()

	client, err := c.VaultFlags.client()
	if err != nil {
		return err
	}

	cert, key, closeSources, err := c.CredentialFlags.sources()
	if err != nil {
		return fmt.Errorf("failed to open instance credentials: %w", err)
	}
	defer closeSources()

	cf, err := login.NewCloudFoundry(login.Config{
		Path:        c.Mount,
		Role:        c.Role,
		Certificate: cert,
		PrivateKey:  key,
	}, client)
	if err != nil {
		return err
	}

	token, err := c.login(ctx, cf)
	if err != nil {
		return err
	}

	log.Info().
		Str("accessor", token.Accessor).
		Dur("lease", token.LeaseDuration).
		Msg("Logged in to Vault")

	return c.print(token)
}

func (c *LoginCmd) login(ctx context.Context, cf *login.CloudFoundry) (*login.Token, error) {
	b := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		b.InitialInterval = c.retryInterval
	}

	attempt := 0
	return backoff.Retry(ctx, func() (*login.Token, error) {
		attempt++

		token, err := cf.Login(ctx)
		if err == nil {
			return token, nil
		}

		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("Login failed")
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.Retries+1))
}

func (c *LoginCmd) print(token *login.Token) error {
	w := stdout(c.out)

	if c.Format != "json" {
		_, err := fmt.Fprintln(w, token.Value)
		return err
	}

	out := loginOutput{
		ClientToken:   token.Value,
		Accessor:      token.Accessor,
		Policies:      token.Policies,
		Metadata:      token.Metadata,
		TokenType:     token.TokenType,
		LeaseDuration: int64(token.LeaseDuration / time.Second),
		Renewable:     token.Renewable,
	}
	if exp := token.ExpiresAt(); !exp.IsZero() {
		out.ExpiresAt = &exp
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// retryable reports whether err is a login failure that may succeed on a
// later attempt: a temporary Vault error or a request that never got a
// response.
func retryable(err error) bool {
	var loginErr *login.LoginFailedError
	if !errors.As(err, &loginErr) {
		return false
	}

	var respErr *vault.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Temporary()
	}

	return !errors.Is(err, vault.ErrMalformedResponse)
}
