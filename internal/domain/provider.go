package domain

import (
	"strings"
	"time"
)

// Provider is a mobile phlebotomy supplier listed in the directory.
type Provider struct {
	ID                string  `gorm:"type:uuid;primaryKey"`
	Name              string  `gorm:"type:varchar(255);not null"`
	Phone             *string `gorm:"type:varchar(32)"`
	Email             *string `gorm:"type:varchar(255)"`
	ClaimEmail        *string `gorm:"type:varchar(255)"`
	NotificationEmail *string `gorm:"type:varchar(255)"`

	// ZipCodes is the provider's coverage declaration: a comma-separated
	// list of exact codes, prefix wildcards ("902*") and inclusive ranges
	// ("90210-90220").
	ZipCodes           string   `gorm:"type:text"`
	ServiceRadiusMiles *float64 `gorm:"type:numeric"`

	PaymentCustomerRef *string `gorm:"type:varchar(255)"`
	PaymentMethodRef   *string `gorm:"type:varchar(255)"`

	EligibleForLeads bool `gorm:"not null;default:false"`
	IsFeatured       bool `gorm:"not null;default:false"`
	NotifyEnabled    bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactEmail resolves the best email for notifying the provider:
// notification email first, then claim email, then the public email.
func (p *Provider) ContactEmail() (string, bool) {
	for _, candidate := range []*string{p.NotificationEmail, p.ClaimEmail, p.Email} {
		if candidate == nil {
			continue
		}
		if email := strings.TrimSpace(*candidate); email != "" {
			return email, true
		}
	}
	return "", false
}

// ContactPhone returns the provider's SMS-capable phone, if any.
func (p *Provider) ContactPhone() (string, bool) {
	if p.Phone == nil {
		return "", false
	}
	phone := strings.TrimSpace(*p.Phone)
	return phone, phone != ""
}

// ChargeEligible reports whether the provider can be charged for a lead:
// both payment references stored and a non-empty coverage declaration.
func (p *Provider) ChargeEligible() bool {
	if p.PaymentCustomerRef == nil || strings.TrimSpace(*p.PaymentCustomerRef) == "" {
		return false
	}
	if p.PaymentMethodRef == nil || strings.TrimSpace(*p.PaymentMethodRef) == "" {
		return false
	}
	return len(p.CoverageTokens()) > 0
}

// CoverageTokens splits the coverage declaration into trimmed, non-empty
// tokens.
func (p *Provider) CoverageTokens() []string {
	if strings.TrimSpace(p.ZipCodes) == "" {
		return nil
	}
	parts := strings.Split(p.ZipCodes, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// HomeZip returns the provider's first declared ZIP, the anchor for radius
// matching. Wildcard and range tokens do not anchor a radius.
func (p *Provider) HomeZip() (string, bool) {
	tokens := p.CoverageTokens()
	if len(tokens) == 0 {
		return "", false
	}
	first := tokens[0]
	if !IsZipCode(first) {
		return "", false
	}
	return first, true
}
