package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/socket-chat-client/internal/config"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.DefineFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(newFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoad_NilFlags(t *testing.T) {
	cfg, err := config.Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoad_Flags(t *testing.T) {
	fs := newFlags(t,
		"--url", "wss://chat.example.com/room/",
		"-i", "alice",
		"--validate_json",
		"--transport", "nhooyr",
		"--write_timeout", "250ms",
		"--log.level", "debug",
	)

	cfg, err := config.Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/room/", cfg.URL)
	assert.Equal(t, "alice", cfg.Identifier)
	assert.True(t, cfg.ValidateJSON)
	assert.Equal(t, "nhooyr", cfg.Transport)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CHAT_CLIENT_URL", "ws://env-host/chat/")
	t.Setenv("CHAT_CLIENT_VALIDATE_JSON", "true")
	t.Setenv("CHAT_CLIENT_LOG_LEVEL", "warn")

	cfg, err := config.Load(newFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, "ws://env-host/chat/", cfg.URL)
	assert.True(t, cfg.ValidateJSON)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("CHAT_CLIENT_IDENTIFIER", "from-env")

	cfg, err := config.Load(newFlags(t, "--identifier", "from-flag"), "")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Identifier)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := "url: ws://file-host/chat/\nidentifier: bob\nclose_timeout: 1s\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(newFlags(t), path)
	require.NoError(t, err)
	assert.Equal(t, "ws://file-host/chat/", cfg.URL)
	assert.Equal(t, "bob", cfg.Identifier)
	assert.Equal(t, time.Second, cfg.CloseTimeout)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load(nil, filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		field  string
	}{
		{"empty url", func(c *config.Config) { c.URL = "" }, "url"},
		{"http scheme", func(c *config.Config) { c.URL = "http://host/" }, "url"},
		{"unknown transport", func(c *config.Config) { c.Transport = "pigeon" }, "transport"},
		{"zero write timeout", func(c *config.Config) { c.WriteTimeout = 0 }, "write_timeout"},
		{"negative read limit", func(c *config.Config) { c.ReadLimit = -1 }, "read_limit"},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.modify(&cfg)

			err := cfg.Validate()
			var ce *config.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	assert.NoError(t, config.Defaults().Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHAT_CLIENT_IDENTIFIER=dotenv-user\n"), 0o644))
	t.Setenv("CHAT_CLIENT_IDENTIFIER", "")
	os.Unsetenv("CHAT_CLIENT_IDENTIFIER")

	require.NoError(t, config.LoadDotEnv(path))
	cfg, err := config.Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-user", cfg.Identifier)

	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestDialerOptions(t *testing.T) {
	opts := config.Defaults().DialerOptions()
	assert.Equal(t, 5*time.Second, opts.HandshakeTimeout)
	assert.Equal(t, int64(1<<20), opts.ReadLimit)
}
