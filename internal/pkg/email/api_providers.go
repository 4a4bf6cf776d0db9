// internal/pkg/email/api_providers.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/your-org/marketplace-backend/internal/config"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGrid API structures
type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Categories       []string                  `json:"categories,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridSender struct {
	apiKey   string
	endpoint string
	from     sendGridAddress
	replyTo  string
	client   *http.Client
}

func newSendGridSender(cfg *config.EmailConfig) (*sendGridSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SendGrid API key not configured")
	}
	return &sendGridSender{
		apiKey:   cfg.APIKey,
		endpoint: sendGridEndpoint,
		from:     sendGridAddress{Email: cfg.FromEmail, Name: cfg.FromName},
		replyTo:  cfg.ReplyTo,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *sendGridSender) Send(ctx context.Context, email *Email) error {
	to := make([]sendGridAddress, 0, len(email.To))
	for _, rcpt := range email.To {
		to = append(to, sendGridAddress{Email: rcpt})
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: to}},
		From:             s.from,
		Subject:          email.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: email.HTMLContent}},
		Categories:       []string{string(email.Type)},
	}
	if s.replyTo != "" {
		payload.ReplyTo = &sendGridAddress{Email: s.replyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SendGrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create SendGrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SendGrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("SendGrid API returned status %d", resp.StatusCode)
	}
	return nil
}
