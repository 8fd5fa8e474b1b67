package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cfauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		path := writeConfig(t, `
vault:
  address: https://vault.example.com:8200
  namespace: team-a
  timeout: 15s
login:
  mount: cf-prod
  role: my-role
  cert_file: /tmp/instance.crt
  key_file: /tmp/instance.key
  watch: true
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://vault.example.com:8200", cfg.Vault.Address)
		assert.Equal(t, "team-a", cfg.Vault.Namespace)
		assert.Equal(t, 15*time.Second, cfg.Vault.Timeout)
		assert.Equal(t, "cf-prod", cfg.Login.Mount)
		assert.Equal(t, "my-role", cfg.Login.Role)
		assert.Equal(t, "/tmp/instance.crt", cfg.Login.CertFile)
		assert.Equal(t, "/tmp/instance.key", cfg.Login.KeyFile)
		assert.True(t, cfg.Login.Watch)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, FileConfig{}, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "login:\n  rolee: my-role\n"))
		require.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "vault:\n  timeout: soon\n"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "login:\n  cert_file: /tmp/instance.crt\n"))
		require.ErrorContains(t, err, "must be set together")
	})
}

func TestFileConfig_Validate(t *testing.T) {
	cfg := FileConfig{
		Vault: VaultConfig{Timeout: -time.Second},
		Login: LoginConfig{KeyFile: "/tmp/instance.key"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault.timeout must not be negative")
	assert.Contains(t, err.Error(), "login.cert_file and login.key_file")

	require.NoError(t, FileConfig{}.Validate())
}
