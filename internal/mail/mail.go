// AngelaMos | 2026
// mail.go

package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
)

type Sender interface {
	SendVerification(ctx context.Context, to, token string) error
	SendTemporaryPassword(ctx context.Context, to, password string) error
}

// New returns nil when mail is disabled. A configured From without a Host
// logs messages instead of delivering them.
func New(cfg config.MailConfig, logger *slog.Logger) Sender {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Host == "" {
		return NewLogSender(logger)
	}
	return &SMTPSender{cfg: cfg}
}

const defaultTimeout = 10 * time.Second

type SMTPSender struct {
	cfg config.MailConfig
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, token string) error {
	body := "Use this token to verify your account:\r\n\r\n" + token + "\r\n"
	return s.send(ctx, to, "Verify your account", body)
}

func (s *SMTPSender) SendTemporaryPassword(ctx context.Context, to, password string) error {
	body := "An administrator reset your password. Your temporary password is:\r\n\r\n" +
		password + "\r\n\r\nChange it after signing in.\r\n"
	return s.send(ctx, to, "Your password was reset", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("send mail: invalid recipient")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	d := net.Dialer{Deadline: deadline}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	// The whole exchange shares one deadline and aborts with ctx.
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on setup failure
		return fmt.Errorf("smtp deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close() //nolint:errcheck // unblocks pending reads
	})
	defer stop()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on handshake failure
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close() //nolint:errcheck // best-effort close after QUIT

	if s.cfg.TLS {
		if err := client.StartTLS(&tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := "From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s *LogSender) SendVerification(ctx context.Context, to, token string) error {
	s.log().InfoContext(ctx, "verification mail", "to", to, "token", token)
	return nil
}

func (s *LogSender) SendTemporaryPassword(ctx context.Context, to, _ string) error {
	s.log().InfoContext(ctx, "temporary password mail", "to", to)
	return nil
}
