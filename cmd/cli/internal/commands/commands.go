package commands

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/cfauth/internal/config"
	"github.com/wolfeidau/cfauth/internal/credentials"
	"github.com/wolfeidau/cfauth/internal/logger"
	"github.com/wolfeidau/cfauth/internal/telemetry"
	"github.com/wolfeidau/cfauth/internal/vault"
)

type Globals struct {
	Debug     bool
	Telemetry bool
	Version   string
}

// VaultFlags select the Vault server.
type VaultFlags struct {
	Address   string        `help:"Vault server address" env:"VAULT_ADDR"`
	Namespace string        `help:"Vault enterprise namespace" env:"VAULT_NAMESPACE"`
	Timeout   time.Duration `help:"Vault request timeout (default 60s)"`
	CACert    string        `help:"PEM bundle of CAs trusted for the Vault server" env:"VAULT_CACERT" type:"path"`
}

func (f *VaultFlags) merge(cfg config.VaultConfig) {
	if f.Address == "" {
		f.Address = cfg.Address
	}
	if f.Namespace == "" {
		f.Namespace = cfg.Namespace
	}
	if f.Timeout == 0 {
		f.Timeout = cfg.Timeout
	}
	if f.CACert == "" {
		f.CACert = cfg.CACert
	}
}

func (f *VaultFlags) config() vault.Config {
	cfg := vault.DefaultConfig()
	if f.Address != "" {
		cfg.Address = f.Address
	}
	if f.Timeout > 0 {
		cfg.Timeout = f.Timeout
	}
	cfg.Namespace = f.Namespace
	return cfg
}

// httpClient logs every request and trusts CACert when set.
func (f *VaultFlags) httpClient() (*http.Client, error) {
	base := http.DefaultTransport
	if f.CACert != "" {
		tlsCfg, err := vault.LoadTLSConfig(f.CACert)
		if err != nil {
			return nil, err
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = tlsCfg
		base = t
	}

	return &http.Client{
		Timeout:   f.config().Timeout,
		Transport: logger.NewTransport(log.Logger, base),
	}, nil
}

func (f *VaultFlags) client() (*vault.Client, error) {
	hc, err := f.httpClient()
	if err != nil {
		return nil, err
	}
	return vault.NewClient(f.config(), vault.WithHTTPClient(hc))
}

// CredentialFlags locate the instance credentials and the role to log in as.
type CredentialFlags struct {
	Role  string `help:"Vault role to log in as" env:"CFAUTH_ROLE"`
	Mount string `help:"Cloud Foundry auth method mount path (default cf)" env:"CFAUTH_MOUNT"`
	Cert  string `help:"Instance certificate file (default /etc/cf-instance-credentials/instance.crt)" env:"CF_INSTANCE_CERT"`
	Key   string `help:"Instance private key file (default /etc/cf-instance-credentials/instance.key)" env:"CF_INSTANCE_KEY"`
	Watch bool   `help:"Keep credential files in memory and reload them when they change"`
}

func (f *CredentialFlags) merge(cfg config.LoginConfig) {
	if f.Role == "" {
		f.Role = cfg.Role
	}
	if f.Mount == "" {
		f.Mount = cfg.Mount
	}
	if f.Cert == "" {
		f.Cert = cfg.CertFile
	}
	if f.Key == "" {
		f.Key = cfg.KeyFile
	}
	f.Watch = f.Watch || cfg.Watch
}

// sources opens the credential sources. The returned function releases any
// file watchers.
func (f *CredentialFlags) sources() (cert, key credentials.Source, closeFn func(), err error) {
	certFile := credentials.DefaultCertificate()
	if f.Cert != "" {
		certFile = credentials.NewFile(f.Cert)
	}
	keyFile := credentials.DefaultKey()
	if f.Key != "" {
		keyFile = credentials.NewFile(f.Key)
	}

	if !f.Watch {
		return certFile, keyFile, func() {}, nil
	}

	watchedCert, err := credentials.NewWatchedFile(certFile.Path())
	if err != nil {
		return nil, nil, nil, err
	}

	watchedKey, err := credentials.NewWatchedFile(keyFile.Path())
	if err != nil {
		_ = watchedCert.Close()
		return nil, nil, nil, err
	}

	closeFn = func() {
		_ = watchedCert.Close()
		_ = watchedKey.Close()
	}

	return watchedCert, watchedKey, closeFn, nil
}

func loadConfig(path string) (config.FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return config.FileConfig{}, nil
	}
	return config.Load(path)
}

// setupTelemetry starts OTLP export when enabled. Failing to start it is
// logged and never stops a command.
func setupTelemetry(ctx context.Context, globals *Globals) func() {
	if !globals.Telemetry {
		return func() {}
	}

	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName: "cfauth",
		Version:     globals.Version,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
