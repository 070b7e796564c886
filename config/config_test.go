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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, "jwt_signing_key: topsecret\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "topsecret", cfg.JWTSigningKey)
	assert.Equal(t, Default().DataRoot, cfg.DataRoot)
	assert.Equal(t, Default().ListenAddr, cfg.ListenAddr)
	assert.Equal(t, Default().ScanBatchSize, cfg.ScanBatchSize)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_root: /srv/tables
listen_addr: ":9090"
jwt_signing_key: topsecret
scan_batch_size: 256
access_token_ttl: 10m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/tables", cfg.DataRoot)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 256, cfg.ScanBatchSize)
	assert.Equal(t, 10*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadRejectsMissingSigningKey(t *testing.T) {
	path := writeConfig(t, "data_root: /srv/tables\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "jwt_signing_key: topsecret\nbogus_field: 1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
