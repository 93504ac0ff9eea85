// Package config contains the client Config and the code to load it from
// defaults, a config file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
)

// EnvPrefix prefixes every environment variable the client reads,
// e.g. CHAT_CLIENT_URL or CHAT_CLIENT_LOG_LEVEL.
const EnvPrefix = "CHAT_CLIENT"

type Config struct {
	// URL is the base address the identifier is appended to, verbatim.
	URL string `mapstructure:"url"`
	// Identifier is the initial display identifier.
	Identifier string `mapstructure:"identifier"`
	// ValidateJSON rejects outbound text that is not well-formed JSON.
	ValidateJSON bool `mapstructure:"validate_json"`
	// AutoConnect opens a session as soon as the client starts.
	AutoConnect bool `mapstructure:"auto_connect"`

	// Transport selects the WebSocket implementation: "gorilla" or "nhooyr".
	Transport        string        `mapstructure:"transport"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	CloseTimeout     time.Duration `mapstructure:"close_timeout"`
	ShutdownGrace    time.Duration `mapstructure:"shutdown_grace"`
	ReadLimit        int64         `mapstructure:"read_limit"`

	Log Log `mapstructure:"log"`
}

// Log configures diagnostic logging.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		URL:              "ws://localhost:8080/ws/",
		Identifier:       "username",
		AutoConnect:      true,
		Transport:        ws.TransportGorilla,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		CloseTimeout:     3 * time.Second,
		ShutdownGrace:    2 * time.Second,
		ReadLimit:        1 << 20,
		Log:              Log{Level: "info"},
	}
}

// DefineFlags registers a flag for every configuration key on fs.
func DefineFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("url", d.URL, "base WebSocket URL the identifier is appended to")
	fs.StringP("identifier", "i", d.Identifier, "display identifier appended to the URL")
	fs.Bool("validate_json", d.ValidateJSON, "only send messages that are well-formed JSON")
	fs.Bool("auto_connect", d.AutoConnect, "connect on startup")
	fs.String("transport", d.Transport, "WebSocket implementation: gorilla or nhooyr")
	fs.Duration("handshake_timeout", d.HandshakeTimeout, "WebSocket handshake timeout")
	fs.Duration("write_timeout", d.WriteTimeout, "timeout for a single outbound message")
	fs.Duration("close_timeout", d.CloseTimeout, "how long a closing handshake waits for the peer")
	fs.Duration("shutdown_grace", d.ShutdownGrace, "how long shutdown waits for sessions to close")
	fs.Int64("read_limit", d.ReadLimit, "maximum inbound message size in bytes")
	fs.String("log.level", d.Log.Level, "log level: trace, debug, info, warn, error or none")
	fs.String("log.file", d.Log.File, "write logs to this file instead of stderr")
}

var keys = []string{
	"url", "identifier", "validate_json", "auto_connect", "transport", "handshake_timeout",
	"write_timeout", "close_timeout", "shutdown_grace", "read_limit", "log.level", "log.file",
}

// Load builds a Config. Precedence, highest first: changed flags, environment,
// config file, defaults. fs may be nil and configFile may be empty.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range keys {
			if f := fs.Lookup(key); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("url", d.URL)
	v.SetDefault("identifier", d.Identifier)
	v.SetDefault("validate_json", d.ValidateJSON)
	v.SetDefault("auto_connect", d.AutoConnect)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("handshake_timeout", d.HandshakeTimeout)
	v.SetDefault("write_timeout", d.WriteTimeout)
	v.SetDefault("close_timeout", d.CloseTimeout)
	v.SetDefault("shutdown_grace", d.ShutdownGrace)
	v.SetDefault("read_limit", d.ReadLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// LoadDotEnv loads environment variables from the given .env files, or from
// ".env" when none are given. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks every field and returns the first problem as a *ConfigError.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if c.URL == "" || err != nil {
		return &ConfigError{Field: "url", Value: c.URL, Message: "must be a valid URL"}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &ConfigError{Field: "url", Value: c.URL, Message: "scheme must be ws or wss",
			Hint: "e.g. ws://localhost:8080/ws/"}
	}
	switch c.Transport {
	case "", ws.TransportGorilla, ws.TransportNhooyr:
	default:
		return &ConfigError{Field: "transport", Value: c.Transport, Message: "unknown transport",
			Hint: "use gorilla or nhooyr"}
	}
	durations := []struct {
		field string
		value time.Duration
	}{
		{"handshake_timeout", c.HandshakeTimeout},
		{"write_timeout", c.WriteTimeout},
		{"close_timeout", c.CloseTimeout},
		{"shutdown_grace", c.ShutdownGrace},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return &ConfigError{Field: d.field, Value: d.value, Message: "must be positive"}
		}
	}
	if c.ReadLimit <= 0 {
		return &ConfigError{Field: "read_limit", Value: c.ReadLimit, Message: "must be positive"}
	}
	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return &ConfigError{Field: "log.level", Value: c.Log.Level, Message: "unknown log level"}
	}
	return nil
}

var logLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "none": {},
}

// DialerOptions returns the transport options described by c.
func (c Config) DialerOptions() ws.Options {
	return ws.Options{
		HandshakeTimeout: c.HandshakeTimeout,
		WriteTimeout:     c.WriteTimeout,
		CloseTimeout:     c.CloseTimeout,
		ReadLimit:        c.ReadLimit,
	}
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
	Hint    string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}
