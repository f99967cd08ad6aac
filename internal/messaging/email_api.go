package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultEmailTimeout = 10 * time.Second

type mailSendRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailAddress struct {
	Email string `json:"email"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// APIEmailSender delivers email through a SendGrid-compatible mail-send
// API.
type APIEmailSender struct {
	client      *resty.Client
	endpoint    string
	defaultFrom string
}

func NewAPIEmailSender(baseURL, apiKey, defaultFrom string) (*APIEmailSender, error) {
	client := resty.New()
	client.SetTimeout(defaultEmailTimeout)
	client.SetRetryCount(0)
	if strings.TrimSpace(apiKey) != "" {
		client.SetAuthToken(apiKey)
	}

	return NewAPIEmailSenderWithClient(baseURL, defaultFrom, client)
}

func NewAPIEmailSenderWithClient(baseURL, defaultFrom string, client *resty.Client) (*APIEmailSender, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("email api base url is required")
	}
	if strings.TrimSpace(defaultFrom) == "" {
		return nil, fmt.Errorf("default from address is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultEmailTimeout)
	}
	client.SetRetryCount(0)

	return &APIEmailSender{
		client:      client,
		endpoint:    trimmed + "/v3/mail/send",
		defaultFrom: strings.TrimSpace(defaultFrom),
	}, nil
}

func (s *APIEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email sender is not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient address is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = s.defaultFrom
	}

	content := make([]mailContent, 0, 2)
	if strings.TrimSpace(msg.TextBody) != "" {
		content = append(content, mailContent{Type: "text/plain", Value: msg.TextBody})
	}
	if strings.TrimSpace(msg.HTMLBody) != "" {
		content = append(content, mailContent{Type: "text/html", Value: msg.HTMLBody})
	}
	if len(content) == 0 {
		return fmt.Errorf("message body is required")
	}

	body := mailSendRequest{
		Personalizations: []mailPersonalization{{To: []mailAddress{{Email: msg.To}}}},
		From:             mailAddress{Email: from},
		Subject:          msg.Subject,
		Content:          content,
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("email send failed: %w", err)
	}

	if response.StatusCode() >= http.StatusOK && response.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	return fmt.Errorf("email api returned status %d: %s",
		response.StatusCode(), strings.TrimSpace(response.String()))
}
