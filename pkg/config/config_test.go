package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Overclock-Validator/bankpda/pkg/accountsdb"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bankpda.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, bank.ProgramID, cfg.ProgramKey())
	assert.Equal(t, accountsdb.BackendBadger, cfg.Store.Backend)
	assert.Equal(t, pda.DefaultLimits(), cfg.Derive)
	assert.Equal(t, uint64(guard.MaxPermittedDataLen), cfg.Guard.MaxPayloadLen)
	assert.Equal(t, DefaultRpcEndpoint, cfg.Rpc.Endpoint)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: pebble
  path: /var/lib/bankpda
  capacity_bytes: 4096
derive:
  max_attempts: 8
guard:
  max_payload_len: 1024
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, accountsdb.BackendPebble, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/bankpda", cfg.Store.Path)
	assert.Equal(t, uint64(4096), cfg.Store.CapacityBytes)
	assert.Equal(t, uint64(8), cfg.Derive.MaxAttempts)
	assert.Equal(t, pda.MaxSeeds, cfg.Derive.MaxSeeds)
	assert.Equal(t, uint64(1024), cfg.Guard.MaxPayloadLen)
	assert.Equal(t, bank.ProgramIDStr, cfg.ProgramID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: pebble\n  path: /tmp/a\n")
	t.Setenv(EnvStoreBackend, accountsdb.BackendMemory)
	t.Setenv(EnvStoreCapacity, "512")
	t.Setenv(EnvRpcEndpoint, "http://127.0.0.1:8899")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, accountsdb.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, uint64(512), cfg.Store.CapacityBytes)
	assert.Equal(t, "http://127.0.0.1:8899", cfg.Rpc.Endpoint)

	t.Setenv(EnvStoreCapacity, "lots")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory without path", func(c *Config) {
			c.Store.Backend = accountsdb.BackendMemory
			c.Store.Path = ""
		}, false},
		{"bad program id", func(c *Config) { c.ProgramID = "not-base58!" }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "leveldb" }, true},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, true},
		{"zero attempts", func(c *Config) { c.Derive.MaxAttempts = 0 }, true},
		{"too many seeds", func(c *Config) { c.Derive.MaxSeeds = pda.MaxSeeds + 1 }, true},
		{"zero payload", func(c *Config) { c.Guard.MaxPayloadLen = 0 }, true},
		{"oversized payload", func(c *Config) { c.Guard.MaxPayloadLen = guard.MaxPermittedDataLen + 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
