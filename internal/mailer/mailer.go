// Package mailer delivers plain-text savings reports over SMTP. It is
// an optional collaborator: with incomplete SMTP configuration the
// mailer reports not ready and the scheduler skips it.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/modules/distribution"
)

// Mailer sends savings reports through a configured SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
	log zerolog.Logger
}

// New creates a new mailer.
func New(cfg config.SMTPConfig, log zerolog.Logger) *Mailer {
	return &Mailer{
		cfg: cfg,
		log: log.With().Str("component", "mailer").Logger(),
	}
}

// IsReady reports whether the SMTP configuration is complete enough to
// send mail. Credentials stay optional, open relays exist in test
// setups.
func (m *Mailer) IsReady() bool {
	return m.cfg.Host != "" && m.cfg.Port > 0 && m.cfg.From != ""
}

// SendReport renders the cycle summary as plain text and mails it.
func (m *Mailer) SendReport(ctx context.Context, to string, report *distribution.CycleReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.IsReady() {
		return fmt.Errorf("mailer is not configured")
	}

	subject := fmt.Sprintf("Savings report %s", report.AppliedAt.Format("2006-01-02"))
	msg := buildMessage(m.cfg.From, to, subject, renderReport(report))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send report mail: %w", err)
	}

	m.log.Info().Str("to", to).Str("cycle_id", report.CycleID).Msg("Report mail sent")
	return nil
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// renderReport formats one applied cycle for a human reader.
func renderReport(report *distribution.CycleReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated savings were applied on %s.\n\n", report.AppliedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Cycle:            %s\n", report.CycleID)
	fmt.Fprintf(&b, "Mode:             %s\n", report.Mode)
	fmt.Fprintf(&b, "Savings amount:   %d\n", report.SavingsAmount)
	fmt.Fprintf(&b, "Effective budget: %d\n", report.EffectiveBudget)
	b.WriteString("\nAllocations:\n")
	if len(report.Allocations) == 0 {
		b.WriteString("  nothing was moved this cycle\n")
	}
	for _, a := range report.Allocations {
		fmt.Fprintf(&b, "  %-32s %+d\n", a.Name, a.Amount)
	}
	return b.String()
}
