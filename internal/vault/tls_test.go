package vault

import (
	"context"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTLSConfig(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"auth":{"client_token":"hvs.tls"}}`)
	}))
	defer srv.Close()

	caPath := filepath.Join(t.TempDir(), "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caPath, caPEM, 0o600))

	t.Run("trusts the bundle", func(t *testing.T) {
		tlsCfg, err := LoadTLSConfig(caPath)
		require.NoError(t, err)

		hc := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}
		client, err := NewClient(Config{Address: srv.URL}, WithHTTPClient(hc))
		require.NoError(t, err)

		resp, err := client.Post(context.Background(), "auth/cf/login", nil, map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, "hvs.tls", resp.Auth.ClientToken)
	})

	t.Run("empty bundle", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not pem"), 0o600))

		_, err := LoadTLSConfig(path)
		require.ErrorIs(t, err, ErrNoCACertificates)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTLSConfig(filepath.Join(t.TempDir(), "missing.pem"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
