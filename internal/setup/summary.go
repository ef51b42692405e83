package setup

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/theme"
)

// Summary renders the saved configuration. Secrets are never shown; stored
// lists the keyring entries that were written.
func Summary(cfg *model.AppConfig, path string, stored []string) string {
	mail := theme.WarnStyle.Render("log only")
	if cfg.SMTP.Host != "" {
		mode := "starttls"
		if cfg.SMTP.TLS {
			mode = "tls"
		}
		mail = cfg.SMTP.Host + ":" + cfg.SMTP.Port + " (" + mode + ")"
	}

	jwt := theme.WarnStyle.Render("set COLLABTODO_AUTH_JWT_SECRET")
	if slices.Contains(stored, model.SecretJWT) {
		jwt = theme.OKStyle.Render("stored in keyring")
	}

	rows := []string{
		row("Config file", path),
		row("Listen address", cfg.Server.Addr),
		row("Frontend URL", cfg.Server.FrontendBaseURL),
		row("Database", cfg.Database.Driver+" "+cfg.Database.DSN),
		row("Mail", mail),
		row("JWT secret", jwt),
		row("Log level", cfg.Log.Level),
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.HeaderStyle.Render("collabtodo configured"),
		"",
		strings.Join(rows, "\n"),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.PanelStyle.Render(body),
		theme.HelpStyle.Render("Run `collabtodo serve` to start the server."),
	)
}

func row(key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.KeyStyle.Render(key), theme.ValueStyle.Render(value))
}
