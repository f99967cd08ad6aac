// Package pricing maps lead urgency to the fixed amount charged to the
// receiving provider. Prices are minor currency units, fixed at lead
// creation and charged verbatim by the cascade.
package pricing

import (
	"fmt"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

// Currency is the settlement currency for all lead charges.
const Currency = "usd"

const (
	standardPriceCents = 2000
	statPriceCents     = 5000
)

// PriceFor returns the charge amount in minor currency units for an
// urgency tier.
func PriceFor(urgency domain.Urgency) (int, error) {
	switch urgency {
	case domain.UrgencyStandard:
		return standardPriceCents, nil
	case domain.UrgencyStat:
		return statPriceCents, nil
	}
	return 0, fmt.Errorf("%w: no price for urgency %q", domain.ErrValidation, urgency)
}
