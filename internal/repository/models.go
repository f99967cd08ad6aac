package repository

import (
	"time"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

// LeadModel is the persistence model for the leads table.
type LeadModel struct {
	ID         string            `gorm:"type:uuid;primaryKey"`
	Name       string            `gorm:"type:varchar(255);not null"`
	Phone      string            `gorm:"type:varchar(32);not null"`
	Email      *string           `gorm:"type:varchar(255)"`
	Street     *string           `gorm:"type:varchar(255)"`
	City       string            `gorm:"type:varchar(100);not null"`
	State      string            `gorm:"type:varchar(2);not null"`
	Zip        string            `gorm:"type:varchar(5);not null"`
	Urgency    domain.Urgency    `gorm:"type:varchar(10);not null"`
	Notes      string            `gorm:"type:text"`
	PriceCents int               `gorm:"not null"`
	Status     domain.LeadStatus `gorm:"type:varchar(10);not null"`
	RoutedToID *string           `gorm:"type:uuid"`
	RoutedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LeadModel) TableName() string {
	return "leads"
}

// ProviderModel is the persistence model for the providers table.
type ProviderModel struct {
	ID                 string   `gorm:"type:uuid;primaryKey"`
	Name               string   `gorm:"type:varchar(255);not null"`
	Phone              *string  `gorm:"type:varchar(32)"`
	Email              *string  `gorm:"type:varchar(255)"`
	ClaimEmail         *string  `gorm:"type:varchar(255)"`
	NotificationEmail  *string  `gorm:"type:varchar(255)"`
	ZipCodes           string   `gorm:"type:text"`
	ServiceRadiusMiles *float64 `gorm:"type:numeric"`
	PaymentCustomerRef *string  `gorm:"type:varchar(255)"`
	PaymentMethodRef   *string  `gorm:"type:varchar(255)"`
	EligibleForLeads   bool     `gorm:"not null;default:false"`
	IsFeatured         bool     `gorm:"not null;default:false"`
	NotifyEnabled      bool     `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (ProviderModel) TableName() string {
	return "providers"
}

// NotificationAttemptModel is the persistence model for
// notification_attempts.
type NotificationAttemptModel struct {
	ID         string                  `gorm:"type:uuid;primaryKey"`
	LeadID     string                  `gorm:"type:uuid;not null"`
	ProviderID *string                 `gorm:"type:uuid"`
	Channel    domain.Channel          `gorm:"type:varchar(10);not null"`
	Kind       domain.NotificationKind `gorm:"type:varchar(20);not null"`
	Status     domain.AttemptStatus    `gorm:"type:varchar(10);not null"`
	Recipient  string                  `gorm:"type:varchar(255);not null"`
	Error      *string                 `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (NotificationAttemptModel) TableName() string {
	return "notification_attempts"
}

// ChargeAttemptModel is the persistence model for charge_attempts.
type ChargeAttemptModel struct {
	ID             string               `gorm:"type:uuid;primaryKey"`
	LeadID         string               `gorm:"type:uuid;not null"`
	ProviderID     string               `gorm:"type:uuid;not null"`
	Ordinal        int                  `gorm:"not null"`
	AmountCents    int                  `gorm:"not null"`
	Currency       string               `gorm:"type:varchar(3);not null"`
	IdempotencyKey string               `gorm:"type:varchar(128);not null"`
	Outcome        domain.ChargeOutcome `gorm:"type:varchar(10);not null"`
	Reason         *string              `gorm:"type:text"`
	CreatedAt      time.Time
}

func (ChargeAttemptModel) TableName() string {
	return "charge_attempts"
}

func leadModelFromDomain(l *domain.Lead) *LeadModel {
	if l == nil {
		return nil
	}

	return &LeadModel{
		ID:         l.ID,
		Name:       l.Name,
		Phone:      l.Phone,
		Email:      l.Email,
		Street:     l.Street,
		City:       l.City,
		State:      l.State,
		Zip:        l.Zip,
		Urgency:    l.Urgency,
		Notes:      l.Notes,
		PriceCents: l.PriceCents,
		Status:     l.Status,
		RoutedToID: l.RoutedToID,
		RoutedAt:   l.RoutedAt,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func leadModelToDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}

	return &domain.Lead{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		Street:     m.Street,
		City:       m.City,
		State:      m.State,
		Zip:        m.Zip,
		Urgency:    m.Urgency,
		Notes:      m.Notes,
		PriceCents: m.PriceCents,
		Status:     m.Status,
		RoutedToID: m.RoutedToID,
		RoutedAt:   m.RoutedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func providerModelFromDomain(p *domain.Provider) *ProviderModel {
	if p == nil {
		return nil
	}

	return &ProviderModel{
		ID:                 p.ID,
		Name:               p.Name,
		Phone:              p.Phone,
		Email:              p.Email,
		ClaimEmail:         p.ClaimEmail,
		NotificationEmail:  p.NotificationEmail,
		ZipCodes:           p.ZipCodes,
		ServiceRadiusMiles: p.ServiceRadiusMiles,
		PaymentCustomerRef: p.PaymentCustomerRef,
		PaymentMethodRef:   p.PaymentMethodRef,
		EligibleForLeads:   p.EligibleForLeads,
		IsFeatured:         p.IsFeatured,
		NotifyEnabled:      p.NotifyEnabled,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func providerModelToDomain(m *ProviderModel) *domain.Provider {
	if m == nil {
		return nil
	}

	return &domain.Provider{
		ID:                 m.ID,
		Name:               m.Name,
		Phone:              m.Phone,
		Email:              m.Email,
		ClaimEmail:         m.ClaimEmail,
		NotificationEmail:  m.NotificationEmail,
		ZipCodes:           m.ZipCodes,
		ServiceRadiusMiles: m.ServiceRadiusMiles,
		PaymentCustomerRef: m.PaymentCustomerRef,
		PaymentMethodRef:   m.PaymentMethodRef,
		EligibleForLeads:   m.EligibleForLeads,
		IsFeatured:         m.IsFeatured,
		NotifyEnabled:      m.NotifyEnabled,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.NotificationAttempt) *NotificationAttemptModel {
	if a == nil {
		return nil
	}

	return &NotificationAttemptModel{
		ID:         a.ID,
		LeadID:     a.LeadID,
		ProviderID: a.ProviderID,
		Channel:    a.Channel,
		Kind:       a.Kind,
		Status:     a.Status,
		Recipient:  a.Recipient,
		Error:      a.Error,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func attemptModelToDomain(m *NotificationAttemptModel) *domain.NotificationAttempt {
	if m == nil {
		return nil
	}

	return &domain.NotificationAttempt{
		ID:         m.ID,
		LeadID:     m.LeadID,
		ProviderID: m.ProviderID,
		Channel:    m.Channel,
		Kind:       m.Kind,
		Status:     m.Status,
		Recipient:  m.Recipient,
		Error:      m.Error,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func chargeModelFromDomain(c *domain.ChargeAttempt) *ChargeAttemptModel {
	if c == nil {
		return nil
	}

	return &ChargeAttemptModel{
		ID:             c.ID,
		LeadID:         c.LeadID,
		ProviderID:     c.ProviderID,
		Ordinal:        c.Ordinal,
		AmountCents:    c.AmountCents,
		Currency:       c.Currency,
		IdempotencyKey: c.IdempotencyKey,
		Outcome:        c.Outcome,
		Reason:         c.Reason,
		CreatedAt:      c.CreatedAt,
	}
}

func chargeModelToDomain(m *ChargeAttemptModel) *domain.ChargeAttempt {
	if m == nil {
		return nil
	}

	return &domain.ChargeAttempt{
		ID:             m.ID,
		LeadID:         m.LeadID,
		ProviderID:     m.ProviderID,
		Ordinal:        m.Ordinal,
		AmountCents:    m.AmountCents,
		Currency:       m.Currency,
		IdempotencyKey: m.IdempotencyKey,
		Outcome:        m.Outcome,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}
