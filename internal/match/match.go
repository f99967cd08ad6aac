package match

import (
	"context"
	"strings"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
)

// Mode selects the eligibility predicate for a call site.
type Mode string

const (
	// ModeChargeCascade requires charge capability and an explicit
	// coverage-token match.
	ModeChargeCascade Mode = "CHARGE_CASCADE"
	// ModeSMSBroadcast requires lead eligibility and a phone; radius match
	// is attempted before the explicit token match.
	ModeSMSBroadcast Mode = "SMS_BROADCAST"
	// ModeFeaturedBroadcast requires the featured flags and a usable
	// email; matches on state-level coverage or an explicit token. No
	// radius fallback.
	ModeFeaturedBroadcast Mode = "FEATURED_BROADCAST"
)

// Matcher decides whether a provider may receive a lead.
type Matcher struct {
	distance *geo.Distance
}

func NewMatcher(distance *geo.Distance) *Matcher {
	return &Matcher{distance: distance}
}

func (m *Matcher) IsEligible(ctx context.Context, p *domain.Provider, lead *domain.Lead, mode Mode) bool {
	if p == nil || lead == nil {
		return false
	}

	switch mode {
	case ModeChargeCascade:
		return p.ChargeEligible() && CoverageMatches(p.CoverageTokens(), lead.Zip)

	case ModeSMSBroadcast:
		if !p.EligibleForLeads {
			return false
		}
		if _, ok := p.ContactPhone(); !ok {
			return false
		}
		if m.radiusMatches(ctx, p, lead.Zip) {
			return true
		}
		return CoverageMatches(p.CoverageTokens(), lead.Zip)

	case ModeFeaturedBroadcast:
		if !p.IsFeatured || !p.NotifyEnabled {
			return false
		}
		if _, ok := p.ContactEmail(); !ok {
			return false
		}
		if CoversState(p.CoverageTokens(), lead.State) {
			return true
		}
		return CoverageMatches(p.CoverageTokens(), lead.Zip)
	}

	return false
}

func (m *Matcher) radiusMatches(ctx context.Context, p *domain.Provider, leadZip string) bool {
	if m == nil || m.distance == nil {
		return false
	}
	if p.ServiceRadiusMiles == nil || *p.ServiceRadiusMiles <= 0 {
		return false
	}
	homeZip, ok := p.HomeZip()
	if !ok {
		return false
	}
	return m.distance.WithinRadius(ctx, homeZip, leadZip, *p.ServiceRadiusMiles)
}

// CoverageMatches reports whether any coverage token matches the lead ZIP.
func CoverageMatches(tokens []string, zip string) bool {
	for _, token := range tokens {
		if TokenMatches(token, zip) {
			return true
		}
	}
	return false
}

// TokenMatches applies the coverage token grammar to one token:
//
//	exact:    "90210"        matches only the identical ZIP
//	wildcard: "902*"         matches any ZIP with that prefix
//	range:    "90210-90220"  matches ZIPs between the bounds, inclusive
//
// Range bounds must both be 5-digit codes; for equal-width digit strings
// the string comparison used here is numerically exact. Malformed tokens
// never match.
func TokenMatches(token, zip string) bool {
	token = strings.TrimSpace(token)
	if token == "" || !domain.IsZipCode(zip) {
		return false
	}

	if prefix, ok := strings.CutSuffix(token, "*"); ok {
		return prefix != "" && strings.HasPrefix(zip, prefix)
	}

	if low, high, ok := strings.Cut(token, "-"); ok {
		low = strings.TrimSpace(low)
		high = strings.TrimSpace(high)
		if !domain.IsZipCode(low) || !domain.IsZipCode(high) {
			return false
		}
		return low <= zip && zip <= high
	}

	return domain.IsZipCode(token) && token == zip
}
