// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Email providers
const (
	ProviderLog      = "log"
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

var templates = map[EmailType]*template.Template{
	EmailTypeWelcome:           template.Must(template.New("welcome").Parse(welcomeTemplate)),
	EmailTypeOrderConfirmation: template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
}

// Service renders transactional emails and hands them to a Sender
type Service struct {
	sender   Sender
	siteName string
	siteURL  string
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService creates an email service for the configured provider
func NewService(cfg *config.Config, logger *logrus.Logger) (*Service, error) {
	sender, err := newSender(&cfg.Email, logger)
	if err != nil {
		return nil, err
	}
	return NewServiceWithSender(sender, cfg, logger), nil
}

// NewServiceWithSender creates an email service around an explicit sender
func NewServiceWithSender(sender Sender, cfg *config.Config, logger *logrus.Logger) *Service {
	siteName := cfg.Email.FromName
	if siteName == "" {
		siteName = cfg.App.Name
	}
	return &Service{
		sender:   sender,
		siteName: siteName,
		siteURL:  strings.TrimRight(cfg.App.BaseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

func newSender(cfg *config.EmailConfig, logger *logrus.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderLog, "":
		return &logSender{logger: logger}, nil
	case ProviderSMTP:
		return newSMTPSender(cfg)
	case ProviderSendGrid:
		return newSendGridSender(cfg)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// SendWelcome greets a newly registered buyer or seller
func (s *Service) SendWelcome(ctx context.Context, p auth.Principal) error {
	data := WelcomeData{
		TemplateData: baseData(s.siteName, s.siteURL, p.Name, p.Email, s.now()),
		Kind:         string(p.Kind),
	}

	html, err := render(EmailTypeWelcome, data)
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{p.Email},
		Subject:     fmt.Sprintf("Welcome to %s!", s.siteName),
		HTMLContent: html,
		Type:        EmailTypeWelcome,
	})
}

// SendOrderConfirmation tells the buyer their order went through
func (s *Service) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	data := OrderConfirmationData{
		TemplateData: baseData(s.siteName, s.siteURL, o.BuyerName, o.Email, s.now()),
		Order:        o,
		OrderURL:     fmt.Sprintf("%s/orders/%s", s.siteURL, o.Reference),
	}

	html, err := render(EmailTypeOrderConfirmation, data)
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{o.Email},
		Subject:     fmt.Sprintf("Order Confirmation - %s", o.Reference),
		HTMLContent: html,
		Type:        EmailTypeOrderConfirmation,
	})
}

func render(kind EmailType, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates[kind].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", kind, err)
	}
	return buf.String(), nil
}

// logSender writes emails to the log instead of delivering them
type logSender struct {
	logger *logrus.Logger
}

func (l *logSender) Send(_ context.Context, email *Email) error {
	l.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"type":    email.Type,
	}).Info("Email not delivered (log provider)")
	return nil
}

const layoutHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
`

const layoutFoot = `        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`

const welcomeTemplate = layoutHead + `
        <p>Hello {{.UserName}},</p>
        {{if eq .Kind "seller"}}
        <p>Your seller account is ready. You can start listing products right away.</p>
        {{else}}
        <p>Your account is ready. Happy shopping!</p>
        {{end}}
        <p><a href="{{.SiteURL}}">Visit {{.SiteName}}</a></p>
` + layoutFoot

const orderConfirmationTemplate = layoutHead + `
        <p>Hello {{.UserName}},</p>
        <p>Thanks for your order <strong>{{.Order.Reference}}</strong>.</p>
        <table style="width: 100%; border-collapse: collapse;">
            {{range .Order.Items}}
            <tr>
                <td>{{.Name}} &times; {{.Quantity}}</td>
                <td style="text-align: right;">${{.LineTotal.StringFixed 2}}</td>
            </tr>
            {{end}}
            <tr><td>Subtotal</td><td style="text-align: right;">${{.Order.Subtotal.StringFixed 2}}</td></tr>
            <tr><td>Shipping</td><td style="text-align: right;">${{.Order.Shipping.StringFixed 2}}</td></tr>
            <tr><td>Tax</td><td style="text-align: right;">${{.Order.Tax.StringFixed 2}}</td></tr>
            <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>${{.Order.Total.StringFixed 2}}</strong></td></tr>
        </table>
        <p><a href="{{.OrderURL}}">View your order</a></p>
` + layoutFoot
