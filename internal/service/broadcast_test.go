package service

import (
	"context"
	"testing"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
)

func newBroadcastForTest(t *testing.T, providers *fakeProviderRepo, table map[string]geo.Coordinates) (*BroadcastService, *fakeAttemptRepo) {
	t.Helper()

	attempts := newFakeAttemptRepo()
	outbox := NewNotificationOutbox(attempts, &fakePublisher{}, nil)
	distance := geo.NewDistance(geo.NewStaticGeocoder(table))

	svc, err := NewBroadcastService(providers, match.NewMatcher(distance), distance, outbox, nil)
	if err != nil {
		t.Fatalf("NewBroadcastService() error = %v", err)
	}
	return svc, attempts
}

func TestNotifyFeaturedMatchesByStateCoverage(t *testing.T) {
	t.Parallel()

	// Covers California by wildcard span, not the lead ZIP itself.
	featured := domain.Provider{
		ID:            "feat",
		Name:          "Featured Labs",
		Email:         strptr("feat@example.com"),
		ZipCodes:      "9021*",
		IsFeatured:    true,
		NotifyEnabled: true,
	}
	// Featured but muted.
	muted := featured
	muted.ID = "muted"
	muted.NotifyEnabled = false
	// Matching coverage but not featured.
	plain := featured
	plain.ID = "plain"
	plain.IsFeatured = false

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{featured, muted, plain}, nil
		},
	}

	svc, attempts := newBroadcastForTest(t, providers, nil)

	lead := openLead("lead-feat", "90211")
	count, err := svc.NotifyFeatured(context.Background(), lead)
	if err != nil {
		t.Fatalf("NotifyFeatured() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("recipients = %d, want 1", count)
	}

	rows := attempts.attemptsOfKind(domain.KindFeaturedLead)
	if len(rows) != 1 {
		t.Fatalf("featured attempts = %d, want 1", len(rows))
	}
	if rows[0].Recipient != "feat@example.com" {
		t.Fatalf("recipient = %s, want feat@example.com", rows[0].Recipient)
	}
	if rows[0].Status != domain.AttemptStatusQueued {
		t.Fatalf("attempt status = %s, want QUEUED", rows[0].Status)
	}
	if rows[0].Channel != domain.ChannelEmail {
		t.Fatalf("attempt channel = %s, want EMAIL", rows[0].Channel)
	}
}

func TestBlastSMSSendsClosestFirst(t *testing.T) {
	t.Parallel()

	table := map[string]geo.Coordinates{
		"90210": {Latitude: 34.0901, Longitude: -118.4065},
		"90401": {Latitude: 34.0195, Longitude: -118.4912},
		"92101": {Latitude: 32.7157, Longitude: -117.1611},
	}

	far := domain.Provider{
		ID:               "far",
		Phone:            strptr("+16195550100"),
		ZipCodes:         "92101,90210",
		EligibleForLeads: true,
	}
	near := domain.Provider{
		ID:               "near",
		Phone:            strptr("+13105550101"),
		ZipCodes:         "90401,90210",
		EligibleForLeads: true,
	}
	noCoords := domain.Provider{
		ID:               "nocoords",
		Phone:            strptr("+12125550102"),
		ZipCodes:         "99999,90210",
		EligibleForLeads: true,
	}
	noPhone := domain.Provider{
		ID:               "nophone",
		ZipCodes:         "90210",
		EligibleForLeads: true,
	}

	providers := &fakeProviderRepo{
		listAllFn: func(context.Context) ([]domain.Provider, error) {
			return []domain.Provider{far, noCoords, near, noPhone}, nil
		},
	}

	svc, attempts := newBroadcastForTest(t, providers, table)

	count, err := svc.BlastSMS(context.Background(), openLead("lead-sms", "90210"))
	if err != nil {
		t.Fatalf("BlastSMS() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("recipients = %d, want 3", count)
	}

	rows := attempts.attemptsOfKind(domain.KindSMSBlast)
	if len(rows) != 3 {
		t.Fatalf("sms attempts = %d, want 3", len(rows))
	}

	wantOrder := []string{"near", "far", "nocoords"}
	for i, wantID := range wantOrder {
		if rows[i].ProviderID == nil || *rows[i].ProviderID != wantID {
			t.Fatalf("send order[%d] = %v, want %s", i, rows[i].ProviderID, wantID)
		}
	}

	for _, row := range rows {
		if row.Channel != domain.ChannelSMS {
			t.Fatalf("attempt channel = %s, want SMS", row.Channel)
		}
	}
}
