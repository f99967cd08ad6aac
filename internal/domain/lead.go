package domain

import (
	"fmt"
	"strings"
	"time"
)

// Urgency represents how quickly a blood draw is needed.
type Urgency string

const (
	UrgencyStandard Urgency = "STANDARD"
	UrgencyStat     Urgency = "STAT"
)

func (u Urgency) String() string { return string(u) }

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyStandard, UrgencyStat:
		return true
	}
	return false
}

func ParseUrgencyFromString(s string) (Urgency, error) {
	u := Urgency(strings.ToUpper(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: invalid urgency %q", ErrValidation, s)
	}
	return u, nil
}

// LeadStatus represents the lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusOpen      LeadStatus = "OPEN"
	LeadStatusDelivered LeadStatus = "DELIVERED"
	LeadStatusUnserved  LeadStatus = "UNSERVED"
)

func (s LeadStatus) String() string { return string(s) }

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusOpen, LeadStatusDelivered, LeadStatusUnserved:
		return true
	}
	return false
}

// IsTerminal reports whether the lead can no longer change status.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusDelivered || s == LeadStatusUnserved
}

func ParseLeadStatusFromString(s string) (LeadStatus, error) {
	st := LeadStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid lead status %q", ErrValidation, s)
	}
	return st, nil
}

// Lead is a service request for a mobile blood draw. A lead leaves OPEN
// exactly once; RoutedToID is set if and only if the lead is DELIVERED.
type Lead struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	Name       string  `gorm:"type:varchar(255);not null"`
	Phone      string  `gorm:"type:varchar(32);not null"`
	Email      *string `gorm:"type:varchar(255)"`
	Street     *string `gorm:"type:varchar(255)"`
	City       string  `gorm:"type:varchar(100);not null"`
	State      string  `gorm:"type:varchar(2);not null"`
	Zip        string  `gorm:"type:varchar(5);not null"`
	Urgency    Urgency `gorm:"type:varchar(10);not null"`
	Notes      string  `gorm:"type:text"`
	PriceCents int     `gorm:"not null"`
	Status     LeadStatus `gorm:"type:varchar(10);not null"`
	RoutedToID *string    `gorm:"type:uuid"`
	RoutedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(l.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if !IsZipCode(l.Zip) {
		return fmt.Errorf("%w: zip must be a 5-digit code, got %q", ErrValidation, l.Zip)
	}
	if strings.TrimSpace(l.City) == "" {
		return fmt.Errorf("%w: city is required", ErrValidation)
	}
	if len(strings.TrimSpace(l.State)) != 2 {
		return fmt.Errorf("%w: state must be a 2-letter code, got %q", ErrValidation, l.State)
	}
	if !l.Urgency.IsValid() {
		return fmt.Errorf("%w: invalid urgency %q", ErrValidation, l.Urgency)
	}
	if l.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return nil
}

// IsZipCode reports whether s is exactly five ASCII digits.
func IsZipCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
