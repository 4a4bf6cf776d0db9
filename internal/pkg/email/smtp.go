// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/your-org/marketplace-backend/internal/config"
)

// implicitTLSPort is the SMTPS port; other ports upgrade with STARTTLS
const implicitTLSPort = 465

type smtpSender struct {
	host     string
	port     int
	auth     smtp.Auth
	from     string
	fromAddr string
	replyTo  string
}

func newSMTPSender(cfg *config.EmailConfig) (*smtpSender, error) {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return nil, fmt.Errorf("SMTP configuration incomplete: missing host or username")
	}
	return &smtpSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		auth:     smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost),
		from:     formatFrom(cfg.FromName, cfg.FromEmail),
		fromAddr: cfg.FromEmail,
		replyTo:  cfg.ReplyTo,
	}, nil
}

func (s *smtpSender) Send(_ context.Context, email *Email) error {
	msg := s.message(email)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if s.port == implicitTLSPort {
		return s.sendWithTLS(addr, email.To, msg)
	}
	if err := smtp.SendMail(addr, s.auth, s.fromAddr, email.To, msg); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

func (s *smtpSender) message(email *Email) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	if s.replyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", s.replyTo)
	}
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(email.HTMLContent)
	return msg.Bytes()
}

func (s *smtpSender) sendWithTLS(addr string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err := client.Auth(s.auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.fromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send DATA command: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write email content: %w", err)
	}
	return w.Close()
}

func formatFrom(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
