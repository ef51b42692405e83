// Package setup implements the interactive "init" wizard that writes the
// server configuration file and stores secrets in the OS keyring.
package setup

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/collab-todo/internal/model"
)

// SecretStore persists secrets outside the config file.
type SecretStore interface {
	Set(key, value string) error
}

// Answers holds the values collected by the wizard.
type Answers struct {
	Addr            string
	FrontendBaseURL string
	CookieSecure    bool

	Driver string
	DSN    string

	// JWTSecret is generated when left empty.
	JWTSecret string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLS      bool

	LogLevel string
}

// AnswersFrom seeds the wizard with the current configuration.
func AnswersFrom(cfg *model.AppConfig) Answers {
	return Answers{
		Addr:            cfg.Server.Addr,
		FrontendBaseURL: cfg.Server.FrontendBaseURL,
		CookieSecure:    cfg.Server.CookieSecure,
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		SMTPHost:        cfg.SMTP.Host,
		SMTPPort:        cfg.SMTP.Port,
		SMTPUsername:    cfg.SMTP.Username,
		SMTPFrom:        cfg.SMTP.From,
		SMTPTLS:         cfg.SMTP.TLS,
		LogLevel:        cfg.Log.Level,
	}
}

// Apply copies the answers onto cfg.
func (a Answers) Apply(cfg *model.AppConfig) {
	cfg.Server.Addr = strings.TrimSpace(a.Addr)
	cfg.Server.FrontendBaseURL = strings.TrimSpace(a.FrontendBaseURL)
	cfg.Server.CookieSecure = a.CookieSecure
	cfg.Database.Driver = a.Driver
	cfg.Database.DSN = strings.TrimSpace(a.DSN)
	cfg.Auth.JWTSecret = a.JWTSecret
	cfg.SMTP.Host = strings.TrimSpace(a.SMTPHost)
	cfg.SMTP.Port = strings.TrimSpace(a.SMTPPort)
	cfg.SMTP.Username = strings.TrimSpace(a.SMTPUsername)
	cfg.SMTP.Password = a.SMTPPassword
	cfg.SMTP.From = strings.TrimSpace(a.SMTPFrom)
	cfg.SMTP.TLS = a.SMTPTLS
	cfg.Log.Level = a.LogLevel
}

// NewForm builds the wizard form bound to a. The SMTP credential group is
// skipped when no SMTP host is entered.
func NewForm(a *Answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Address the HTTP server binds to").
				Placeholder(":4000").
				Value(&a.Addr).
				Validate(validateAddr),
			huh.NewInput().
				Title("Frontend URL").
				Description("Base URL used in invitation links").
				Placeholder("http://localhost:5173").
				Value(&a.FrontendBaseURL).
				Validate(validateURL),
			huh.NewConfirm().
				Title("Cross-site cookies").
				Description("Mark the session cookie Secure with SameSite=None").
				Affirmative("Yes").
				Negative("No").
				Value(&a.CookieSecure),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("SQLite - single file, no server", "sqlite"),
					huh.NewOption("PostgreSQL", "postgres"),
				).
				Value(&a.Driver),
			huh.NewInput().
				Title("Connection string").
				Description("File path for SQLite, DSN for PostgreSQL").
				Placeholder("collabtodo.db").
				Value(&a.DSN).
				Validate(validateRequired("Connection string")),
			huh.NewInput().
				Title("JWT secret").
				Description("Leave empty to generate one").
				EchoMode(huh.EchoModePassword).
				Value(&a.JWTSecret),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Host").
				Description("Leave empty to log emails instead of sending them").
				Placeholder("smtp.example.com").
				Value(&a.SMTPHost),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Port").
				Description("SMTP server port (e.g., 587)").
				Placeholder("587").
				Value(&a.SMTPPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Description("SMTP account username").
				Placeholder("user@example.com").
				Value(&a.SMTPUsername),
			huh.NewInput().
				Title("Password").
				Description("SMTP password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&a.SMTPPassword),
			huh.NewInput().
				Title("From").
				Description("Sender address; defaults to the username").
				Placeholder("Todo App <noreply@example.com>").
				Value(&a.SMTPFrom),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Implicit TLS (port 465) instead of STARTTLS").
				Affirmative("Yes").
				Negative("No").
				Value(&a.SMTPTLS),
		).WithHideFunc(func() bool { return strings.TrimSpace(a.SMTPHost) == "" }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&a.LogLevel),
		),
	)
}

// Save applies a onto base, writes the config file to path and stores
// secrets. It returns the saved configuration and the secret keys written.
// With a nil secrets store nothing is persisted outside the file, so the
// JWT secret must then come from COLLABTODO_AUTH_JWT_SECRET.
func Save(path string, a Answers, base *model.AppConfig, secrets SecretStore) (*model.AppConfig, []string, error) {
	if a.JWTSecret == "" {
		secret, err := GenerateSecret()
		if err != nil {
			return nil, nil, err
		}
		a.JWTSecret = secret
	}

	cfg := *base
	a.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := model.SaveConfig(path, &cfg); err != nil {
		return nil, nil, err
	}

	var stored []string
	if secrets == nil {
		return &cfg, stored, nil
	}
	if err := secrets.Set(model.SecretJWT, cfg.Auth.JWTSecret); err != nil {
		return nil, nil, fmt.Errorf("storing jwt secret: %w", err)
	}
	stored = append(stored, model.SecretJWT)
	if cfg.SMTP.Host != "" && cfg.SMTP.Password != "" {
		if err := secrets.Set(model.SecretSMTPPassword, cfg.SMTP.Password); err != nil {
			return nil, nil, fmt.Errorf("storing smtp password: %w", err)
		}
		stored = append(stored, model.SecretSMTPPassword)
	}
	return &cfg, stored, nil
}

// Run drives the wizard on the terminal and prints a summary to out.
func Run(ctx context.Context, path string, base *model.AppConfig, secrets SecretStore, out io.Writer) error {
	answers := AnswersFrom(base)
	if err := NewForm(&answers).RunWithContext(ctx); err != nil {
		return err
	}

	cfg, stored, err := Save(path, answers, base, secrets)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, Summary(cfg, path, stored))
	return err
}

// GenerateSecret returns 32 random bytes, hex encoded.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func validateAddr(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("address is required")
	}
	_, port, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("address must be host:port (e.g., :4000)")
	}
	return validatePort(port)
}
