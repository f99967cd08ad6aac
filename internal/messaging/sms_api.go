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

const defaultSMSTimeout = 10 * time.Second

// APISMSSender delivers text messages through a Twilio-compatible
// messaging API using a messaging service for sender-number selection.
type APISMSSender struct {
	client             *resty.Client
	endpoint           string
	messagingServiceID string
}

func NewAPISMSSender(baseURL, accountSID, authToken, messagingServiceID string) (*APISMSSender, error) {
	client := resty.New()
	client.SetTimeout(defaultSMSTimeout)
	client.SetRetryCount(0)
	if strings.TrimSpace(accountSID) != "" {
		client.SetBasicAuth(accountSID, authToken)
	}

	return NewAPISMSSenderWithClient(baseURL, accountSID, messagingServiceID, client)
}

func NewAPISMSSenderWithClient(baseURL, accountSID, messagingServiceID string, client *resty.Client) (*APISMSSender, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("sms api base url is required")
	}
	if strings.TrimSpace(accountSID) == "" {
		return nil, fmt.Errorf("account sid is required")
	}
	if strings.TrimSpace(messagingServiceID) == "" {
		return nil, fmt.Errorf("messaging service id is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSMSTimeout)
	}
	client.SetRetryCount(0)

	return &APISMSSender{
		client:             client,
		endpoint:           fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", trimmed, strings.TrimSpace(accountSID)),
		messagingServiceID: strings.TrimSpace(messagingServiceID),
	}, nil
}

func (s *APISMSSender) Send(ctx context.Context, msg SMSMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sms sender is not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient phone is required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("message body is required")
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":                  msg.To,
			"MessagingServiceSid": s.messagingServiceID,
			"Body":                msg.Body,
		}).
		Post(s.endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("sms send failed: %w", err)
	}

	if response.StatusCode() >= http.StatusOK && response.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	return fmt.Errorf("sms api returned status %d: %s",
		response.StatusCode(), strings.TrimSpace(response.String()))
}
