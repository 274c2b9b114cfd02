// Package notify mails digests of games that are at their historical low.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"
	"barter-enhancer/internal/stats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
)

const report_mailer_send = "mailer.send"

type SMTPConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

// Alert is a game whose current best price is at or below its historical low.
type Alert struct {
	Page    string
	ItemID  string
	Title   string
	Current game.PriceRecord
	Lowest  game.PriceRecord
}

type Digest struct {
	GeneratedAt time.Time
	Alerts      []Alert
}

func (d Digest) Subject() string {
	if len(d.Alerts) == 1 {
		return fmt.Sprintf("%s is at its historical low", d.Alerts[0].Title)
	}
	return fmt.Sprintf("%d games are at their historical low", len(d.Alerts))
}

func (d Digest) table() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Game", "Best price", "Historical low", "Page"})
	for _, alert := range d.Alerts {
		t.AppendRow(table.Row{
			alert.Title,
			fmt.Sprintf("%s: %s", alert.Current.ShopName, stats.FormatMoney(alert.Current.Price, alert.Current.Currency)),
			stats.FormatMoney(alert.Lowest.Price, alert.Lowest.Currency),
			alert.Page,
		})
	}
	return t
}

// Text is the plain text body of the digest.
func (d Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Price check of %s\n\n", d.GeneratedAt.Format(time.RFC1123))
	b.WriteString(d.table().Render())
	b.WriteString("\n")
	return b.String()
}

func (d Digest) HTML() string {
	return d.table().RenderHTML()
}

// Notifier delivers digests.
//
// note: fault injection point
type Notifier interface {
	Notify(ctx context.Context, digest Digest) error
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Mailer is a Notifier that sends digests over smtp.
type Mailer struct {
	config SMTPConfig
	tel    telemetry.API
	send   sendFunc
}

func NewMailer(config SMTPConfig, tel telemetry.API) Mailer {
	assert.NotNil(tel, "telemetry")
	return Mailer{
		config: config,
		tel:    telemetry.NewScopedAPI("notify", tel),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (m Mailer) Notify(ctx context.Context, digest Digest) error {
	if len(digest.Alerts) == 0 {
		return nil
	}
	if !m.config.Enabled() {
		m.tel.ReportDebug("smtp is not configured, dropping digest", len(digest.Alerts))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.config.From
	e.To = m.config.To
	e.Subject = digest.Subject()
	e.Text = []byte(digest.Text())
	e.HTML = []byte(digest.HTML())

	port := m.config.Port
	if port == 0 {
		port = 587
	}
	addr := m.config.Host + ":" + strconv.Itoa(port)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	err := m.send(e, addr, auth)
	if err != nil {
		m.tel.ReportBroken(report_mailer_send, err, addr)
		return fmt.Errorf("send digest: %w", err)
	}
	m.tel.ReportCount(report_mailer_send, int64(len(digest.Alerts)))
	return nil
}
