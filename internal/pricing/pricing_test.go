package pricing

import (
	"errors"
	"testing"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

func TestPriceFor(t *testing.T) {
	t.Parallel()

	standard, err := PriceFor(domain.UrgencyStandard)
	if err != nil {
		t.Fatalf("PriceFor(STANDARD) unexpected error = %v", err)
	}
	if standard != 2000 {
		t.Fatalf("PriceFor(STANDARD) = %d, want 2000", standard)
	}

	stat, err := PriceFor(domain.UrgencyStat)
	if err != nil {
		t.Fatalf("PriceFor(STAT) unexpected error = %v", err)
	}
	if stat != 5000 {
		t.Fatalf("PriceFor(STAT) = %d, want 5000", stat)
	}

	if _, err := PriceFor("RUSH"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("PriceFor(RUSH) error = %v, want ErrValidation", err)
	}
}
