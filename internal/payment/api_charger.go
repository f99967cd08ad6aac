package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultChargeTimeout = 15 * time.Second

type chargeAPIRequest struct {
	Customer      string            `json:"customer"`
	PaymentMethod string            `json:"payment_method"`
	AmountCents   int               `json:"amount"`
	Currency      string            `json:"currency"`
	OffSession    bool              `json:"off_session"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type chargeAPIResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APICharger charges stored payment methods through the gateway's REST
// API. A 402 response is a decline; everything else non-2xx is a
// transport error.
type APICharger struct {
	client   *resty.Client
	endpoint string
}

func NewAPICharger(endpoint, apiKey string) (*APICharger, error) {
	client := resty.New()
	client.SetTimeout(defaultChargeTimeout)
	client.SetRetryCount(0)
	if strings.TrimSpace(apiKey) != "" {
		client.SetAuthToken(apiKey)
	}

	return NewAPIChargerWithClient(endpoint, client)
}

func NewAPIChargerWithClient(endpoint string, client *resty.Client) (*APICharger, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("charge endpoint is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultChargeTimeout)
	}
	client.SetRetryCount(0)

	return &APICharger{
		client:   client,
		endpoint: trimmed,
	}, nil
}

func (c *APICharger) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("charger is not initialized")
	}
	if strings.TrimSpace(req.CustomerRef) == "" || strings.TrimSpace(req.MethodRef) == "" {
		return nil, fmt.Errorf("customer and payment method references are required")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("charge amount must be positive")
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	body := chargeAPIRequest{
		Customer:      req.CustomerRef,
		PaymentMethod: req.MethodRef,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		OffSession:    true,
		Metadata:      req.Metadata,
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", req.IdempotencyKey).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return nil, &TransportError{
			Message:   "charge request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()

	var parsed chargeAPIResponse
	if len(response.Body()) > 0 {
		// A decode failure on an error body still classifies by status.
		_ = json.Unmarshal(response.Body(), &parsed)
	}

	switch {
	case statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices:
		return &ChargeResult{
			TransactionID: parsed.ID,
			StatusCode:    statusCode,
		}, nil

	case statusCode == http.StatusPaymentRequired:
		decline := &DeclineError{Reason: "card was declined"}
		if parsed.Error != nil {
			decline.Code = parsed.Error.Code
			if strings.TrimSpace(parsed.Error.Message) != "" {
				decline.Reason = parsed.Error.Message
			}
		}
		return nil, decline

	default:
		message := fmt.Sprintf("gateway returned status %d", statusCode)
		if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
			message = fmt.Sprintf("%s: %s", message, parsed.Error.Message)
		}
		return nil, &TransportError{
			StatusCode: statusCode,
			Message:    message,
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
