package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/payment"
)

func newCascadeForTest(
	t *testing.T,
	leads *fakeLeadRepo,
	providers *fakeProviderRepo,
	charges *fakeChargeRepo,
	attempts *fakeAttemptRepo,
	charger *fakeCharger,
) (*CascadeService, *fakeAttemptRepo) {
	t.Helper()

	if attempts == nil {
		attempts = newFakeAttemptRepo()
	}
	outbox := NewNotificationOutbox(attempts, &fakePublisher{}, nil)
	matcher := match.NewMatcher(geo.NewDistance(geo.NewStaticGeocoder(nil)))

	svc, err := NewCascadeService(
		leads,
		providers,
		charges,
		matcher,
		identityRanker{},
		charger,
		outbox,
		"ops@example.com",
		nil,
	)
	if err != nil {
		t.Fatalf("NewCascadeService() error = %v", err)
	}
	return svc, attempts
}

func TestDispatchSkipsNonChargeableAndDelivers(t *testing.T) {
	t.Parallel()

	// X covers the ZIP by wildcard but has no payment method; Y covers
	// it exactly and can be charged.
	x := chargeProvider("x", "902*")
	x.PaymentMethodRef = nil
	y := chargeProvider("y", "90210")

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{x, y}, nil
		},
	}

	var delivered struct {
		providerID string
		calls      int
	}
	leads := &fakeLeadRepo{
		markDeliveredFn: func(_ context.Context, id, providerID string, _ time.Time) error {
			delivered.providerID = providerID
			delivered.calls++
			return nil
		},
		markUnservedFn: func(context.Context, string) error {
			t.Fatal("MarkUnserved should not be called")
			return nil
		},
	}

	var chargedProviders []string
	charger := &fakeCharger{
		chargeFn: func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			chargedProviders = append(chargedProviders, req.Metadata["provider_id"])
			return &payment.ChargeResult{TransactionID: "txn_1", StatusCode: 200}, nil
		},
	}

	charges := &fakeChargeRepo{}
	svc, attempts := newCascadeForTest(t, leads, providers, charges, nil, charger)

	lead := openLead("lead-1", "90210")
	result, err := svc.Dispatch(context.Background(), lead)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if result.Status != domain.LeadStatusDelivered {
		t.Fatalf("result status = %s, want DELIVERED", result.Status)
	}
	if result.RoutedToID == nil || *result.RoutedToID != "y" {
		t.Fatalf("routed to = %v, want y", result.RoutedToID)
	}
	if result.CandidateCount != 1 {
		t.Fatalf("candidate count = %d, want 1 (x is not charge-eligible)", result.CandidateCount)
	}
	if len(chargedProviders) != 1 || chargedProviders[0] != "y" {
		t.Fatalf("charged providers = %v, want [y]", chargedProviders)
	}
	if delivered.calls != 1 || delivered.providerID != "y" {
		t.Fatalf("delivered = %+v, want one call routing to y", delivered)
	}
	if lead.Status != domain.LeadStatusDelivered {
		t.Fatalf("lead status = %s, want DELIVERED", lead.Status)
	}

	offers := attempts.attemptsOfKind(domain.KindLeadOffer)
	if len(offers) != 1 {
		t.Fatalf("lead offer attempts = %d, want 1", len(offers))
	}
	if offers[0].Recipient != "y@example.com" {
		t.Fatalf("offer recipient = %s, want y@example.com", offers[0].Recipient)
	}
}

func TestDispatchChargesAtMostOneProvider(t *testing.T) {
	t.Parallel()

	candidates := []domain.Provider{
		chargeProvider("a", "90210"),
		chargeProvider("b", "90210"),
		chargeProvider("c", "90210"),
	}
	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return candidates, nil
		},
	}

	chargeCalls := 0
	charger := &fakeCharger{
		chargeFn: func(context.Context, payment.ChargeRequest) (*payment.ChargeResult, error) {
			chargeCalls++
			return &payment.ChargeResult{TransactionID: "txn", StatusCode: 200}, nil
		},
	}

	charges := &fakeChargeRepo{}
	svc, _ := newCascadeForTest(t, &fakeLeadRepo{}, providers, charges, nil, charger)

	result, err := svc.Dispatch(context.Background(), openLead("lead-2", "90210"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if chargeCalls != 1 {
		t.Fatalf("charge calls = %d, want exactly 1", chargeCalls)
	}
	succeeded := 0
	for _, c := range charges.created {
		if c.Outcome == domain.ChargeSucceeded {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded charge rows = %d, want exactly 1", succeeded)
	}
	if result.Status != domain.LeadStatusDelivered {
		t.Fatalf("result status = %s, want DELIVERED", result.Status)
	}
}

func TestDispatchContinuesPastDecline(t *testing.T) {
	t.Parallel()

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{
				chargeProvider("first", "90210"),
				chargeProvider("second", "90210"),
			}, nil
		},
	}

	charger := &fakeCharger{
		chargeFn: func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			if req.Metadata["provider_id"] == "first" {
				return nil, &payment.DeclineError{Code: "card_declined", Reason: "insufficient funds"}
			}
			return &payment.ChargeResult{TransactionID: "txn_2", StatusCode: 200}, nil
		},
	}

	charges := &fakeChargeRepo{}
	svc, attempts := newCascadeForTest(t, &fakeLeadRepo{}, providers, charges, nil, charger)

	result, err := svc.Dispatch(context.Background(), openLead("lead-3", "90210"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if result.Status != domain.LeadStatusDelivered {
		t.Fatalf("result status = %s, want DELIVERED", result.Status)
	}
	if result.RoutedToID == nil || *result.RoutedToID != "second" {
		t.Fatalf("routed to = %v, want second", result.RoutedToID)
	}
	if result.ChargesTried != 2 {
		t.Fatalf("charges tried = %d, want 2", result.ChargesTried)
	}

	if len(charges.created) != 2 {
		t.Fatalf("charge rows = %d, want 2", len(charges.created))
	}
	if charges.created[0].Outcome != domain.ChargeDeclined {
		t.Fatalf("first outcome = %s, want DECLINED", charges.created[0].Outcome)
	}
	if charges.created[0].Reason == nil || *charges.created[0].Reason != "insufficient funds" {
		t.Fatalf("first reason = %v, want insufficient funds", charges.created[0].Reason)
	}
	if charges.created[1].Outcome != domain.ChargeSucceeded {
		t.Fatalf("second outcome = %s, want SUCCEEDED", charges.created[1].Outcome)
	}

	declines := attempts.attemptsOfKind(domain.KindPaymentDeclined)
	if len(declines) != 1 {
		t.Fatalf("decline notices = %d, want 1", len(declines))
	}
	if declines[0].ProviderID == nil || *declines[0].ProviderID != "first" {
		t.Fatalf("decline notice provider = %v, want first", declines[0].ProviderID)
	}
}

func TestDispatchExhaustionMarksUnservedOnce(t *testing.T) {
	t.Parallel()

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			// Covers a different area entirely.
			return []domain.Provider{chargeProvider("far", "10001")}, nil
		},
	}

	unservedCalls := 0
	leads := &fakeLeadRepo{
		markDeliveredFn: func(context.Context, string, string, time.Time) error {
			t.Fatal("MarkDelivered should not be called")
			return nil
		},
		markUnservedFn: func(context.Context, string) error {
			unservedCalls++
			return nil
		},
	}

	charger := &fakeCharger{
		chargeFn: func(context.Context, payment.ChargeRequest) (*payment.ChargeResult, error) {
			t.Fatal("no charge should be attempted")
			return nil, nil
		},
	}

	svc, attempts := newCascadeForTest(t, leads, providers, &fakeChargeRepo{}, nil, charger)

	lead := openLead("lead-4", "90210")
	result, err := svc.Dispatch(context.Background(), lead)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if result.Status != domain.LeadStatusUnserved {
		t.Fatalf("result status = %s, want UNSERVED", result.Status)
	}
	if result.RoutedToID != nil {
		t.Fatalf("routed to = %v, want nil", result.RoutedToID)
	}
	if unservedCalls != 1 {
		t.Fatalf("MarkUnserved calls = %d, want 1", unservedCalls)
	}

	alerts := attempts.attemptsOfKind(domain.KindAdminAlert)
	if len(alerts) != 1 {
		t.Fatalf("admin alerts = %d, want exactly 1", len(alerts))
	}
	if alerts[0].Recipient != "ops@example.com" {
		t.Fatalf("alert recipient = %s, want ops@example.com", alerts[0].Recipient)
	}
	if alerts[0].ProviderID != nil {
		t.Fatalf("alert provider = %v, want nil", alerts[0].ProviderID)
	}
}

func TestDispatchTransportErrorAdvancesCascade(t *testing.T) {
	t.Parallel()

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{
				chargeProvider("flaky", "90210"),
				chargeProvider("solid", "90210"),
			}, nil
		},
	}

	charger := &fakeCharger{
		chargeFn: func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			if req.Metadata["provider_id"] == "flaky" {
				return nil, &payment.TransportError{StatusCode: 503, Message: "gateway unavailable", Transient: true}
			}
			return &payment.ChargeResult{TransactionID: "txn_3", StatusCode: 200}, nil
		},
	}

	charges := &fakeChargeRepo{}
	svc, _ := newCascadeForTest(t, &fakeLeadRepo{}, providers, charges, nil, charger)

	result, err := svc.Dispatch(context.Background(), openLead("lead-5", "90210"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if result.Status != domain.LeadStatusDelivered {
		t.Fatalf("result status = %s, want DELIVERED", result.Status)
	}
	if charges.created[0].Outcome != domain.ChargeErrored {
		t.Fatalf("first outcome = %s, want ERROR", charges.created[0].Outcome)
	}
}

func TestDispatchUsesIdempotencyKeys(t *testing.T) {
	t.Parallel()

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{chargeProvider("p1", "90210")}, nil
		},
	}

	var capturedKey string
	charger := &fakeCharger{
		chargeFn: func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			capturedKey = req.IdempotencyKey
			return &payment.ChargeResult{TransactionID: "txn", StatusCode: 200}, nil
		},
	}

	charges := &fakeChargeRepo{}
	svc, _ := newCascadeForTest(t, &fakeLeadRepo{}, providers, charges, nil, charger)

	if _, err := svc.Dispatch(context.Background(), openLead("lead-6", "90210")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := domain.ChargeIdempotencyKey("lead-6", "p1", 1)
	if capturedKey != want {
		t.Fatalf("idempotency key = %q, want %q", capturedKey, want)
	}
	if charges.created[0].IdempotencyKey != want {
		t.Fatalf("persisted key = %q, want %q", charges.created[0].IdempotencyKey, want)
	}
}

func TestDispatchRejectsSettledLead(t *testing.T) {
	t.Parallel()

	svc, _ := newCascadeForTest(t, &fakeLeadRepo{}, &fakeProviderRepo{}, &fakeChargeRepo{}, nil, &fakeCharger{})

	lead := openLead("lead-7", "90210")
	lead.Status = domain.LeadStatusDelivered

	_, err := svc.Dispatch(context.Background(), lead)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Dispatch() error = %v, want ErrConflict", err)
	}
}
