package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"muster/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage(tpl string) Message {
	activeFrom := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return Message{
		ToAddress: "owner@example.com",
		ToName:    "Owner",
		Subject:   "Charter Spring Approved",
		Template:  tpl,
		Data: MailData{
			Name:        "Owner",
			CharterName: "Spring",
			LeagueName:  "Rose City",
			ActiveFrom:  &activeFrom,
			URL:         "https://muster.test/leagues/rose-city/charters/spring",
			Sender:      "Muster",
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		contains string
	}{
		{TemplateCharterSubmitted, "Charter Spring for Rose City has been submitted for approval."},
		{TemplateCharterApproved, "has been approved and is active from May 1, 2026."},
		{TemplateCharterRejected, "Charter Spring for Rose City could not be approved."},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			body, err := Render(sampleMessage(tt.template))
			require.NoError(t, err)
			assert.Contains(t, body, "Hi Owner,")
			assert.Contains(t, body, tt.contains)
			assert.Contains(t, body, "https://muster.test/leagues/rose-city/charters/spring")
		})
	}
}

func TestRender_ApprovedWithoutActiveFrom(t *testing.T) {
	msg := sampleMessage(TemplateCharterApproved)
	msg.Data.ActiveFrom = nil
	msg.Data.URL = ""

	body, err := Render(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "has been approved.")
	assert.NotContains(t, body, "https://")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(sampleMessage("charter_exploded"))
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	mailer := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, mailer.Send(context.Background(), sampleMessage(TemplateCharterRejected)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "owner@example.com", line["to"])
	assert.Equal(t, "Charter Spring Approved", line["subject"])
	assert.Contains(t, line["body"], "could not be approved")
}

func smtpConfig() *config.Config {
	return &config.Config{
		MailDriver:      config.MailDriverSMTP,
		SMTPHost:        "127.0.0.1",
		SMTPPort:        1,
		MailFromAddress: "charters@muster.test",
		MailFromName:    "Muster",
	}
}

func TestSMTPMailer_Build(t *testing.T) {
	mailer, err := NewSMTPMailer(smtpConfig())
	require.NoError(t, err)

	msg, err := mailer.build(sampleMessage(TemplateCharterApproved))
	require.NoError(t, err)

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Subject: Charter Spring Approved")
	assert.Contains(t, raw.String(), "owner@example.com")
	assert.Contains(t, raw.String(), "charters@muster.test")
	assert.Contains(t, raw.String(), "Hi Owner,")

	bad := sampleMessage(TemplateCharterApproved)
	bad.ToAddress = "not an address"
	_, err = mailer.build(bad)
	assert.Error(t, err)
}

func TestSMTPMailer_SendFailsWithoutServer(t *testing.T) {
	mailer, err := NewSMTPMailer(smtpConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, mailer.Send(ctx, sampleMessage(TemplateCharterSubmitted)))
}

func TestNewMailer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	m, err := NewMailer(&config.Config{MailDriver: config.MailDriverLog}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = NewMailer(smtpConfig(), logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)
}
