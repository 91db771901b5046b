package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"rpc_url": "https://api.mainnet-beta.solana.com",
		"private_key": "test-key"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "solana", cfg.Chain)
	assert.Equal(t, uint64(DefaultMinLockValue), cfg.MinLockValue)
	assert.Equal(t, DefaultEventBuffer, cfg.EventBuffer)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name:    "missing rpc_url",
			content: `{"private_key": "k"}`,
		},
		{
			name:    "bad rpc scheme",
			content: `{"rpc_url": "ftp://node", "private_key": "k"}`,
		},
		{
			name:    "missing private key",
			content: `{"rpc_url": "https://node"}`,
		},
		{
			name:    "unknown chain",
			content: `{"chain": "near", "rpc_url": "https://node", "private_key": "k"}`,
		},
		{
			name:    "zero min lock value",
			content: `{"rpc_url": "https://node", "private_key": "k", "min_lock_value": 0}`,
		},
		{
			name:    "evm without contract settings",
			content: `{"chain": "evm", "rpc_url": "https://node", "private_key": "k"}`,
		},
		{
			name:    "watch_events without ws_url",
			content: `{"rpc_url": "https://node", "private_key": "k", "watch_events": true}`,
		},
		{
			name: "watch_events with http ws_url",
			content: `{"rpc_url": "https://node", "private_key": "k",
				"watch_events": true, "ws_url": "https://node"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEVM(t *testing.T) {
	path := writeConfig(t, `{
		"chain": "evm",
		"rpc_url": "https://rpc.example.org",
		"private_key": "deadbeef",
		"evm_deployer": "0x00000000000000000000000000000000000Fac70",
		"evm_init_code_hash": "0x1111111111111111111111111111111111111111111111111111111111111111",
		"evm_locker": "0x2222222222222222222222222222222222222222"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "evm", cfg.Chain)
	assert.NotEmpty(t, cfg.EVMLocker)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TWOSIDE_PRIVATE_KEY", "env-key")
	t.Setenv("TWOSIDE_POSTGRES_URL", "postgres://env")

	path := writeConfig(t, `{
		"rpc_url": "https://api.mainnet-beta.solana.com",
		"private_key": "file-key"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.PrivateKey)
	assert.Equal(t, "postgres://env", cfg.PostgresURL)
}
