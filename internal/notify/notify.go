// Package notify delivers transactional email: welcome, invitation, and
// password-reset OTP messages.
package notify

import (
	"context"

	"github.com/charmbracelet/log"
)

// Message is a single outbound email. HTML and Text may both be set, in
// which case the message is sent as multipart/alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// selected when no SMTP host is configured.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender returns a LogSender writing to logger.
func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger.WithPrefix("mail")}
}

// Send logs msg and never fails.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	s.logger.Info("email not delivered (no smtp host)", "to", msg.To, "subject", msg.Subject, "body", body)
	return nil
}
