// Package config loads the optional cfauth YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the on-disk configuration. Every field is optional; command
// line flags and environment variables take precedence over it.
type FileConfig struct {
	Vault VaultConfig `yaml:"vault"`
	Login LoginConfig `yaml:"login"`
}

// VaultConfig selects the Vault server.
type VaultConfig struct {
	Address   string        `yaml:"address"`
	Namespace string        `yaml:"namespace"`
	Timeout   time.Duration `yaml:"timeout"`
	CACert    string        `yaml:"ca_cert"`
}

// LoginConfig configures the Cloud Foundry login.
type LoginConfig struct {
	Mount    string `yaml:"mount"`
	Role     string `yaml:"role"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// Watch serves the credential files from memory and reloads them when they
	// change, instead of reading them on every login.
	Watch bool `yaml:"watch"`
}

// Validate checks the values that are set.
func (c FileConfig) Validate() error {
	var errs []error

	if c.Vault.Timeout < 0 {
		errs = append(errs, fmt.Errorf("vault.timeout must not be negative, got %s", c.Vault.Timeout))
	}

	if (c.Login.CertFile == "") != (c.Login.KeyFile == "") {
		errs = append(errs, errors.New("login.cert_file and login.key_file must be set together"))
	}

	return errors.Join(errs...)
}
