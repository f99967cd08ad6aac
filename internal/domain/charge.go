package domain

import (
	"fmt"
	"time"
)

// ChargeOutcome represents the result of one charge attempt against a
// candidate provider.
type ChargeOutcome string

const (
	ChargeSucceeded ChargeOutcome = "SUCCEEDED"
	ChargeDeclined  ChargeOutcome = "DECLINED"
	ChargeErrored   ChargeOutcome = "ERROR"
)

func (o ChargeOutcome) String() string { return string(o) }

func (o ChargeOutcome) IsValid() bool {
	switch o {
	case ChargeSucceeded, ChargeDeclined, ChargeErrored:
		return true
	}
	return false
}

// ChargeAttempt records one cascade step: which provider was charged for
// which lead, in which position, and how it ended. Rows are append-only.
type ChargeAttempt struct {
	ID             string        `gorm:"type:uuid;primaryKey"`
	LeadID         string        `gorm:"type:uuid;not null"`
	ProviderID     string        `gorm:"type:uuid;not null"`
	Ordinal        int           `gorm:"not null"`
	AmountCents    int           `gorm:"not null"`
	Currency       string        `gorm:"type:varchar(3);not null"`
	IdempotencyKey string        `gorm:"type:varchar(128);not null"`
	Outcome        ChargeOutcome `gorm:"type:varchar(10);not null"`
	Reason         *string       `gorm:"type:text"`
	CreatedAt      time.Time
}

// ChargeIdempotencyKey derives the key sent to the payment transport so a
// reprocessed lead cannot double-charge the same candidate position.
func ChargeIdempotencyKey(leadID, providerID string, ordinal int) string {
	return fmt.Sprintf("lead:%s:provider:%s:attempt:%d", leadID, providerID, ordinal)
}
