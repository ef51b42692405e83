package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/collab-todo/internal/model"
)

const dialTimeout = 30 * time.Second

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	cfg  model.SMTPConfig
	from *mail.Address
	now  func() time.Time
}

// NewSMTPSender validates the sender address and returns an SMTPSender.
// From falls back to Username when empty.
func NewSMTPSender(cfg model.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parsing sender address %q: %w", from, err)
	}
	return &SMTPSender{cfg: cfg, from: addr, now: time.Now}, nil
}

// Send composes msg as MIME and delivers it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := compose(s.from, msg, s.now())
	if err != nil {
		return err
	}

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parsing recipient %q: %w", msg.To, err)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if s.cfg.TLS {
		return sendSMTPWithTLS(ctx, addr, s.cfg, s.from.Address, to.Address, body)
	}
	return sendSMTPWithStartTLS(ctx, addr, s.cfg, s.from.Address, to.Address, body)
}

// compose renders msg as an RFC 5322 message. With both bodies present the
// result is multipart/alternative, text first.
func compose(from *mail.Address, msg Message, date time.Time) ([]byte, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient %q: %w", msg.To, err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer

	if msg.HTML == "" || msg.Text == "" {
		contentType, body := "text/plain", msg.Text
		if msg.HTML != "" {
			contentType, body = "text/html", msg.HTML
		}
		h.SetContentType(contentType, map[string]string{"charset": "utf-8"})

		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("creating message writer: %w", err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			return nil, fmt.Errorf("writing message body: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("closing message body: %w", err)
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline writer: %w", err)
	}

	for _, part := range []struct{ contentType, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	} {
		var ph mail.InlineHeader
		ph.SetContentType(part.contentType, map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("creating %s part: %w", part.contentType, err)
		}
		if _, err := io.WriteString(pw, part.body); err != nil {
			return nil, fmt.Errorf("writing %s part: %w", part.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("closing %s part: %w", part.contentType, err)
		}
	}

	if err := iw.Close(); err != nil {
		return nil, fmt.Errorf("closing inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// sendSMTPWithTLS sends an email over an implicit TLS connection.
func sendSMTPWithTLS(
	ctx context.Context, addr string, cfg model.SMTPConfig,
	from, to string, body []byte,
) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: dialTimeout},
		Config:    &tls.Config{ServerName: cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if err := authenticate(client, cfg); err != nil {
		return err
	}

	return sendMailViaSMTPClient(client, from, to, body)
}

// sendSMTPWithStartTLS sends an email using STARTTLS when the server
// offers it.
func sendSMTPWithStartTLS(
	ctx context.Context, addr string, cfg model.SMTPConfig,
	from, to string, body []byte,
) error {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: cfg.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if err := authenticate(client, cfg); err != nil {
		return err
	}

	return sendMailViaSMTPClient(client, from, to, body)
}

// authenticate performs PLAIN auth when a username is configured.
func authenticate(client *smtp.Client, cfg model.SMTPConfig) error {
	if cfg.Username == "" {
		return nil
	}
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}
	return nil
}

// sendMailViaSMTPClient sends a message using an already-authenticated
// SMTP client.
func sendMailViaSMTPClient(
	client *smtp.Client, from, to string, body []byte,
) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}

	if _, err := writer.Write(body); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
