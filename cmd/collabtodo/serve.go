package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nhle/collab-todo/internal/api"
	"github.com/nhle/collab-todo/internal/auth"
	"github.com/nhle/collab-todo/internal/logging"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/notify"
	"github.com/nhle/collab-todo/internal/service"
	"github.com/nhle/collab-todo/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Examples:
  collabtodo serve
  collabtodo serve --addr :8080
  COLLABTODO_DATABASE_DRIVER=postgres COLLABTODO_DATABASE_DSN=postgres://... collabtodo serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := logging.New(os.Stderr, cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			tokens, err := auth.NewTokens(cfg.Auth.JWTSecret,
				auth.WithSessionTTL(cfg.Auth.SessionTTL),
				auth.WithInvitationTTL(cfg.Auth.InvitationTTL),
			)
			if err != nil {
				return err
			}

			sender, err := newSender(cfg.SMTP, logger)
			if err != nil {
				return err
			}

			svc := service.New(st, tokens, sender, logger,
				service.WithFrontendBaseURL(cfg.Server.FrontendBaseURL),
				service.WithOTPTTL(cfg.Auth.OTPTTL),
			)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewServer(svc, logger, cfg.Server.CookieSecure),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return run(ctx, srv, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

// newSender picks SMTP delivery when a host is configured and falls back to
// logging messages otherwise.
func newSender(cfg model.SMTPConfig, logger *log.Logger) (notify.Sender, error) {
	if cfg.Host == "" {
		logger.Warn("smtp host not configured, emails will only be logged")
		return notify.NewLogSender(logger), nil
	}
	return notify.NewSMTPSender(cfg)
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
