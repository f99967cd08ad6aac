package domain

import (
	"reflect"
	"testing"
)

func strptr(s string) *string { return &s }

func TestProviderContactEmailPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider Provider
		want     string
		wantOK   bool
	}{
		{
			name: "notification email wins",
			provider: Provider{
				Email:             strptr("public@example.com"),
				ClaimEmail:        strptr("claim@example.com"),
				NotificationEmail: strptr("notify@example.com"),
			},
			want:   "notify@example.com",
			wantOK: true,
		},
		{
			name: "claim email before fallback",
			provider: Provider{
				Email:      strptr("public@example.com"),
				ClaimEmail: strptr("claim@example.com"),
			},
			want:   "claim@example.com",
			wantOK: true,
		},
		{
			name:     "fallback email",
			provider: Provider{Email: strptr("public@example.com")},
			want:     "public@example.com",
			wantOK:   true,
		},
		{
			name: "blank values are skipped",
			provider: Provider{
				NotificationEmail: strptr("  "),
				Email:             strptr("public@example.com"),
			},
			want:   "public@example.com",
			wantOK: true,
		},
		{
			name:   "no usable email",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.provider.ContactEmail()
			if ok != tt.wantOK {
				t.Fatalf("ContactEmail() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("ContactEmail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderChargeEligible(t *testing.T) {
	t.Parallel()

	eligible := Provider{
		ZipCodes:           "90210, 902*",
		PaymentCustomerRef: strptr("cus_123"),
		PaymentMethodRef:   strptr("pm_456"),
	}
	if !eligible.ChargeEligible() {
		t.Fatal("provider with both refs and coverage should be charge-eligible")
	}

	missingMethod := eligible
	missingMethod.PaymentMethodRef = nil
	if missingMethod.ChargeEligible() {
		t.Fatal("provider without a payment method must not be charge-eligible")
	}

	missingCustomer := eligible
	missingCustomer.PaymentCustomerRef = strptr("   ")
	if missingCustomer.ChargeEligible() {
		t.Fatal("provider with a blank customer ref must not be charge-eligible")
	}

	noCoverage := eligible
	noCoverage.ZipCodes = " , "
	if noCoverage.ChargeEligible() {
		t.Fatal("provider with empty coverage must not be charge-eligible")
	}
}

func TestProviderCoverageTokens(t *testing.T) {
	t.Parallel()

	p := Provider{ZipCodes: " 90210 ,902*, 90300-90400 ,,"}
	got := p.CoverageTokens()
	want := []string{"90210", "902*", "90300-90400"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CoverageTokens() = %v, want %v", got, want)
	}

	empty := Provider{ZipCodes: "   "}
	if tokens := empty.CoverageTokens(); tokens != nil {
		t.Fatalf("CoverageTokens() = %v, want nil", tokens)
	}
}

func TestProviderHomeZip(t *testing.T) {
	t.Parallel()

	p := Provider{ZipCodes: "10002, 100*"}
	zip, ok := p.HomeZip()
	if !ok || zip != "10002" {
		t.Fatalf("HomeZip() = %q, %v, want 10002, true", zip, ok)
	}

	wildcardFirst := Provider{ZipCodes: "100*, 10002"}
	if _, ok := wildcardFirst.HomeZip(); ok {
		t.Fatal("wildcard first token must not anchor a radius")
	}
}
