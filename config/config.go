// Package config loads the verifier service configuration from YAML with
// CHAINVERIFIER_* environment overrides for secrets and common settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luca-patrignani/chain-verifier/verifier"
)

// Config is the root configuration.
type Config struct {
	Verifier VerifierConfig `yaml:"verifier"`
	Server   ServerConfig   `yaml:"server"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
}

// VerifierConfig selects the secret and primitives. Secret is normally left
// empty in the file and provided through CHAINVERIFIER_SECRET.
type VerifierConfig struct {
	Secret      string `yaml:"secret"`
	Digest      string `yaml:"digest"`
	MAC         string `yaml:"mac"`
	MaxDataSize int    `yaml:"max_data_size"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	TLS        bool   `yaml:"tls"`
}

type LedgerConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Verifier: VerifierConfig{
			Digest:      verifier.SHA256.Name(),
			MAC:         verifier.HMACSHA256.Name(),
			MaxDataSize: verifier.DefaultMaxDataSize,
		},
		Server: ServerConfig{ListenAddr: "127.0.0.1:8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("config unmarshal: %w", err)
		}
	}
	if err := applyEnvOverrides(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("CHAINVERIFIER_SECRET"); v != "" {
		c.Verifier.Secret = v
	}
	if v := os.Getenv("CHAINVERIFIER_DIGEST"); v != "" {
		c.Verifier.Digest = v
	}
	if v := os.Getenv("CHAINVERIFIER_MAC"); v != "" {
		c.Verifier.MAC = v
	}
	if v := os.Getenv("CHAINVERIFIER_MAX_DATA_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config env CHAINVERIFIER_MAX_DATA_SIZE: %w", err)
		}
		c.Verifier.MaxDataSize = n
	}
	if v := os.Getenv("CHAINVERIFIER_LISTEN"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("CHAINVERIFIER_TLS"); v != "" {
		c.Server.TLS = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CHAINVERIFIER_SNAPSHOT"); v != "" {
		c.Ledger.SnapshotPath = v
	}
	if v := os.Getenv("CHAINVERIFIER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks algorithm names, bounds and the log level.
func (c *Config) Validate() error {
	if _, err := verifier.DigestByName(c.Verifier.Digest); err != nil {
		return fmt.Errorf("config verifier.digest: %w", err)
	}
	if _, err := verifier.MACByName(c.Verifier.MAC); err != nil {
		return fmt.Errorf("config verifier.mac: %w", err)
	}
	if c.Verifier.MaxDataSize <= 0 {
		return fmt.Errorf("config verifier.max_data_size: must be positive, got %d", c.Verifier.MaxDataSize)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// NewVerifier builds the verifier described by c. When no secret is
// configured a random one is generated for the lifetime of the process;
// the returned flag reports whether that happened.
func (c *Config) NewVerifier(opts ...verifier.Option) (*verifier.Verifier, bool, error) {
	digest, err := verifier.DigestByName(c.Verifier.Digest)
	if err != nil {
		return nil, false, err
	}
	mac, err := verifier.MACByName(c.Verifier.MAC)
	if err != nil {
		return nil, false, err
	}

	secret := []byte(c.Verifier.Secret)
	generated := false
	if len(secret) == 0 {
		secret, err = verifier.GenerateSecret()
		if err != nil {
			return nil, false, err
		}
		generated = true
	}
	opts = append([]verifier.Option{
		verifier.WithDigest(digest),
		verifier.WithMAC(mac),
		verifier.WithMaxDataSize(c.Verifier.MaxDataSize),
	}, opts...)
	v, err := verifier.New(secret, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("config verifier: %w", err)
	}
	return v, generated, nil
}

// SlogLevel maps the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New("config log.level: unknown level " + strconv.Quote(l.Level))
}

// String omits the secret.
func (c Config) String() string {
	secret := "unset"
	if c.Verifier.Secret != "" {
		secret = "set"
	}
	return fmt.Sprintf("digest=%s mac=%s max_data_size=%d secret=%s listen=%s tls=%t snapshot=%q log=%s",
		c.Verifier.Digest, c.Verifier.MAC, c.Verifier.MaxDataSize, secret,
		c.Server.ListenAddr, c.Server.TLS, c.Ledger.SnapshotPath, c.Log.Level)
}
