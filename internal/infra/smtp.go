package infra

import (
	"bytes"
	"fmt"
	"net/smtp"
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending quotes with PDF attachments.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

const smtpTimeout = 30 * time.Second

// SendCotizacion sends the quote PDF to the customer email. Blocking,
// one-shot: retries are the caller's decision.
func (m *Mailer) SendCotizacion(to, subject, body string, pdfBytes []byte, pdfName string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if len(pdfBytes) > 0 {
		if _, err := e.Attach(bytes.NewReader(pdfBytes), pdfName, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	p, err := email.NewPool(m.addr, 1, auth)
	if err != nil {
		return fmt.Errorf("mailer: connect SMTP: %w", err)
	}
	defer p.Close()
	return p.Send(e, smtpTimeout)
}
