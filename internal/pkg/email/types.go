// internal/pkg/email/types.go
package email

import (
	"context"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/order"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeWelcome           EmailType = "welcome"
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// Sender delivers a rendered email through one provider
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName  string
	SiteURL   string
	UserName  string
	UserEmail string
	Year      int
}

// WelcomeData contains data for the welcome email
type WelcomeData struct {
	TemplateData
	Kind string
}

// OrderConfirmationData contains data for the order confirmation email
type OrderConfirmationData struct {
	TemplateData
	Order    *order.Order
	OrderURL string
}

func baseData(siteName, siteURL, userName, userEmail string, now time.Time) TemplateData {
	return TemplateData{
		SiteName:  siteName,
		SiteURL:   siteURL,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      now.Year(),
	}
}
