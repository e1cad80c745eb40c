// AngelaMos | 2026
// mail_test.go

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
)

func TestResendSenderPostsMessage(t *testing.T) {
	var got resendRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &ResendSender{
		cfg: config.MailConfig{
			FromEmail:    "ledger@example.com",
			FromName:     "Ledger",
			ResendAPIKey: "re_test",
		},
		client:   srv.Client(),
		endpoint: srv.URL,
	}

	err := s.Send(context.Background(), "a@example.com", "hi", "<p>x</p>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "Ledger <ledger@example.com>", got.From)
	assert.Equal(t, "hi", got.Subject)
}

func TestResendSenderUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s := &ResendSender{client: srv.Client(), endpoint: srv.URL}

	err := s.Send(context.Background(), "a@example.com", "hi", "body")
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestSMTPSenderWrapsFailure(t *testing.T) {
	var gotAddr string
	s := &SMTPSender{
		cfg: config.MailConfig{SMTPHost: "mail.local", SMTPPort: "2525"},
		send: func(addr string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
			gotAddr = addr
			return errors.New("connection refused")
		},
	}

	err := s.Send(context.Background(), "a@example.com", "hi", "body")
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.Equal(t, "mail.local:2525", gotAddr)
}

func TestLogSenderNeverFails(t *testing.T) {
	s := NewSender(config.MailConfig{Provider: "log"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NoError(t, s.Send(context.Background(), "a@example.com", "s", "b"))
}

func TestTempPasswordMessage(t *testing.T) {
	subject, body := TempPasswordMessage(
		"https://app.example.com", "<Ann>", "ann+1@example.com", "abc123", false,
	)

	assert.Equal(t, "Your account has been created", subject)
	assert.Contains(t, body, "abc123")
	assert.Contains(t, body, "&lt;Ann&gt;")
	assert.Contains(t, body, "email=ann%2B1%40example.com")

	subject, _ = TempPasswordMessage("https://app.example.com", "Ann", "a@b.c", "x", true)
	assert.Equal(t, "Reset your password", subject)
}
