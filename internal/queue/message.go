package queue

import (
	"fmt"
	"strings"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

// NotificationMessage is the broker payload driving one delivery. The
// attempt row is the outbox record; the message carries only identifiers.
type NotificationMessage struct {
	AttemptID     string                  `json:"attemptId"`
	LeadID        string                  `json:"leadId"`
	ProviderID    string                  `json:"providerId,omitempty"`
	Channel       domain.Channel          `json:"channel"`
	Kind          domain.NotificationKind `json:"kind"`
	CorrelationID string                  `json:"correlationId,omitempty"`
}

func (m NotificationMessage) Validate() error {
	if strings.TrimSpace(m.AttemptID) == "" {
		return fmt.Errorf("attemptId is required")
	}
	if strings.TrimSpace(m.LeadID) == "" {
		return fmt.Errorf("leadId is required")
	}
	if !m.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", m.Channel)
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid notification kind %q", m.Kind)
	}
	return nil
}
