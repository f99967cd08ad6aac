package domain

import (
	"fmt"
	"strings"
	"time"
)

// Channel represents the delivery channel for a notification.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// AttemptStatus represents delivery-tracking state. An attempt is created
// QUEUED and moves exactly once to SENT or FAILED.
type AttemptStatus string

const (
	AttemptStatusQueued AttemptStatus = "QUEUED"
	AttemptStatusSent   AttemptStatus = "SENT"
	AttemptStatusFailed AttemptStatus = "FAILED"
)

func (s AttemptStatus) String() string { return string(s) }

func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStatusQueued, AttemptStatusSent, AttemptStatusFailed:
		return true
	}
	return false
}

func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSent || s == AttemptStatusFailed
}

// NotificationKind identifies what message an attempt delivers.
type NotificationKind string

const (
	KindLeadOffer       NotificationKind = "LEAD_OFFER"
	KindPaymentDeclined NotificationKind = "PAYMENT_DECLINED"
	KindFeaturedLead    NotificationKind = "FEATURED_LEAD"
	KindSMSBlast        NotificationKind = "SMS_BLAST"
	KindAdminAlert      NotificationKind = "ADMIN_ALERT"
)

func (k NotificationKind) String() string { return string(k) }

func (k NotificationKind) IsValid() bool {
	switch k {
	case KindLeadOffer, KindPaymentDeclined, KindFeaturedLead, KindSMSBlast, KindAdminAlert:
		return true
	}
	return false
}

// NotificationAttempt is an append-only audit record of one delivery try.
// ProviderID is nil only for admin alerts.
type NotificationAttempt struct {
	ID         string           `gorm:"type:uuid;primaryKey"`
	LeadID     string           `gorm:"type:uuid;not null"`
	ProviderID *string          `gorm:"type:uuid"`
	Channel    Channel          `gorm:"type:varchar(10);not null"`
	Kind       NotificationKind `gorm:"type:varchar(20);not null"`
	Status     AttemptStatus    `gorm:"type:varchar(10);not null"`
	Recipient  string           `gorm:"type:varchar(255);not null"`
	Error      *string          `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *NotificationAttempt) Validate() error {
	if strings.TrimSpace(a.LeadID) == "" {
		return fmt.Errorf("%w: lead id is required", ErrValidation)
	}
	if !a.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, a.Channel)
	}
	if !a.Kind.IsValid() {
		return fmt.Errorf("%w: invalid notification kind %q", ErrValidation, a.Kind)
	}
	if strings.TrimSpace(a.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	return nil
}
