package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keyring keys for secrets that may be kept out of the config file.
const (
	SecretJWT          = "jwt-secret"
	SecretSMTPPassword = "smtp-password"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":4000".
	Addr string `mapstructure:"addr" yaml:"addr"`

	// FrontendBaseURL prefixes invitation links sent by email.
	FrontendBaseURL string `mapstructure:"frontend_base_url" yaml:"frontend_base_url"`

	// CookieSecure marks the session cookie Secure with SameSite=None.
	CookieSecure bool `mapstructure:"cookie_secure" yaml:"cookie_secure"`
}

// DatabaseConfig selects the SQL dialect and connection string.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// AuthConfig holds credential signing and lifetime settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	InvitationTTL time.Duration `mapstructure:"invitation_ttl" yaml:"invitation_ttl"`
	OTPTTL        time.Duration `mapstructure:"otp_ttl" yaml:"otp_ttl"`
}

// SMTPConfig holds outbound mail settings. An empty Host selects the
// logging sender.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// SecretLookup resolves a named secret from outside the config file.
type SecretLookup func(key string) (string, error)

// Validate reports configuration that cannot be served.
func (c *AppConfig) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/collabtodo/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "collabtodo", "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:            ":4000",
			FrontendBaseURL: "http://localhost:5173",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "collabtodo.db",
		},
		Auth: AuthConfig{
			SessionTTL:    24 * time.Hour,
			InvitationTTL: 7 * 24 * time.Hour,
			OTPTTL:        10 * time.Minute,
		},
		SMTP: SMTPConfig{
			Port: "587",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.frontend_base_url", d.Server.FrontendBaseURL)
	v.SetDefault("server.cookie_secure", d.Server.CookieSecure)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.invitation_ttl", d.Auth.InvitationTTL)
	v.SetDefault("auth.otp_ttl", d.Auth.OTPTTL)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", d.SMTP.Port)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.tls", false)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// with COLLABTODO_* environment overrides. If the file does not exist the
// defaults are used. Secrets left empty are resolved through lookup when it
// is non-nil; lookup failures are ignored.
func LoadConfig(path string, lookup SecretLookup) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("COLLABTODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows every key.
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if lookup != nil {
		if cfg.Auth.JWTSecret == "" {
			if secret, err := lookup(SecretJWT); err == nil {
				cfg.Auth.JWTSecret = secret
			}
		}
		if cfg.SMTP.Host != "" && cfg.SMTP.Password == "" {
			if secret, err := lookup(SecretSMTPPassword); err == nil {
				cfg.SMTP.Password = secret
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Secrets are never written; they
// belong in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	smtp := cfg.SMTP
	smtp.Password = ""

	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)
	v.Set("auth", map[string]any{
		"session_ttl":    cfg.Auth.SessionTTL.String(),
		"invitation_ttl": cfg.Auth.InvitationTTL.String(),
		"otp_ttl":        cfg.Auth.OTPTTL.String(),
	})
	v.Set("smtp", smtp)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
