package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func testDigest() Digest {
	return Digest{
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Alerts: []Alert{
			{
				Page:    "https://barter.vg/u/a1/o/1/",
				ItemID:  "12",
				Title:   "Half-Life 2",
				Current: game.PriceRecord{Price: 0.98, Currency: "USD", ShopName: "Steam"},
				Lowest:  game.PriceRecord{Price: 0.98, Currency: "USD", ShopName: "Steam"},
			},
		},
	}
}

func TestDigest(t *testing.T) {
	digest := testDigest()
	require.Equal(t, "Half-Life 2 is at its historical low", digest.Subject())
	require.Contains(t, digest.Text(), "Steam: 0.98 USD")
	require.Contains(t, digest.HTML(), "<table")

	digest.Alerts = append(digest.Alerts, digest.Alerts[0])
	require.Equal(t, "2 games are at their historical low", digest.Subject())
}

func TestMailer(t *testing.T) {
	tel := telemetry.NewRecorder()
	mailer := NewMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Username: "user",
		Password: "pass",
		From:     "bot@example.com",
		To:       []string{"me@example.com"},
	}, tel)

	var sent *email.Email
	var sentAddr string
	mailer.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent = e
		sentAddr = addr
		require.NotNil(t, auth)
		return nil
	}

	require.NoError(t, mailer.Notify(context.Background(), testDigest()))
	require.NotNil(t, sent)
	require.Equal(t, "smtp.example.com:587", sentAddr)
	require.Equal(t, []string{"me@example.com"}, sent.To)
	require.Contains(t, string(sent.Text), "Half-Life 2")

	mailer.send = func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	}
	require.Error(t, mailer.Notify(context.Background(), testDigest()))
	require.Len(t, tel.Reports("broken", report_mailer_send), 1)
}

func TestMailerSkips(t *testing.T) {
	calls := 0
	mailer := NewMailer(SMTPConfig{}, telemetry.NewRecorder())
	mailer.send = func(*email.Email, string, smtp.Auth) error {
		calls++
		return nil
	}

	require.NoError(t, mailer.Notify(context.Background(), testDigest()), "no smtp config")
	require.NoError(t, mailer.Notify(context.Background(), Digest{}), "no alerts")
	require.Equal(t, 0, calls)
}
