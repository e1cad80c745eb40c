// AngelaMos | 2026
// mail.go

package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/smtp"
	"net/url"
	"time"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/metrics"
)

const resendEndpoint = "https://api.resend.com/emails"

// Sender delivers one HTML message. Failures are wrapped with
// core.ErrUpstream.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

func NewSender(cfg config.MailConfig, logger *slog.Logger) Sender {
	switch cfg.Provider {
	case "resend":
		return &ResendSender{
			cfg:      cfg,
			client:   &http.Client{Timeout: 10 * time.Second},
			endpoint: resendEndpoint,
		}
	case "smtp":
		return &SMTPSender{cfg: cfg, send: smtp.SendMail}
	default:
		return &LogSender{logger: logger}
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type ResendSender struct {
	cfg      config.MailConfig
	client   *http.Client
	endpoint string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	err := s.send(ctx, to, subject, htmlBody)
	metrics.MailDeliveries.WithLabelValues("resend", metrics.Outcome(err)).Inc()
	return err
}

func (s *ResendSender) send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(resendRequest{
		From:    fromHeader(s.cfg),
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.endpoint,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w: %w", core.ErrUpstream, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= 400 {
		return fmt.Errorf(
			"send mail: resend status %d: %w",
			resp.StatusCode,
			core.ErrUpstream,
		)
	}

	return nil
}

type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPSender struct {
	cfg  config.MailConfig
	send smtpSendFunc
}

func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort

	msg := "From: " + fromHeader(s.cfg) + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		htmlBody

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	err := s.send(addr, auth, s.cfg.FromEmail, []string{to}, []byte(msg))
	metrics.MailDeliveries.WithLabelValues("smtp", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("smtp send: %w: %w", core.ErrUpstream, err)
	}

	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("mail not delivered, log provider",
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	metrics.MailDeliveries.WithLabelValues("log", "success").Inc()
	return nil
}

func fromHeader(cfg config.MailConfig) string {
	if cfg.FromName == "" {
		return cfg.FromEmail
	}
	return fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
}

// TempPasswordMessage renders the account-created or password-reset mail
// carrying a temporary password and the change-password link.
func TempPasswordMessage(
	frontendBaseURL, name, email, tempPassword string,
	reset bool,
) (subject, body string) {
	link := fmt.Sprintf(
		"%s/change-password?email=%s&temp=true",
		frontendBaseURL,
		url.QueryEscape(email),
	)

	subject = "Your account has been created"
	intro := "An account has been created for you."
	if reset {
		subject = "Reset your password"
		intro = "A password reset was requested for your account."
	}

	body = fmt.Sprintf(
		`<p>Hello %s,</p>`+
			`<p>%s</p>`+
			`<p>Your temporary password is <strong>%s</strong>. It expires in 48 hours.</p>`+
			`<p><a href="%s">Change your password</a></p>`,
		html.EscapeString(name),
		intro,
		html.EscapeString(tempPassword),
		html.EscapeString(link),
	)

	return subject, body
}
