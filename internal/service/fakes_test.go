package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/messaging"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/payment"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/queue"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

type fakeLeadRepo struct {
	createFn        func(ctx context.Context, l *domain.Lead) error
	getByIDFn       func(ctx context.Context, id string) (*domain.Lead, error)
	listFn          func(ctx context.Context, params repository.ListLeadsParams) ([]domain.Lead, int64, error)
	markDeliveredFn func(ctx context.Context, id, providerID string, routedAt time.Time) error
	markUnservedFn  func(ctx context.Context, id string) error
}

func (f *fakeLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, l)
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeLeadRepo) List(ctx context.Context, params repository.ListLeadsParams) ([]domain.Lead, int64, error) {
	if f.listFn == nil {
		return nil, 0, nil
	}
	return f.listFn(ctx, params)
}

func (f *fakeLeadRepo) MarkDelivered(ctx context.Context, id, providerID string, routedAt time.Time) error {
	if f.markDeliveredFn == nil {
		return nil
	}
	return f.markDeliveredFn(ctx, id, providerID, routedAt)
}

func (f *fakeLeadRepo) MarkUnserved(ctx context.Context, id string) error {
	if f.markUnservedFn == nil {
		return nil
	}
	return f.markUnservedFn(ctx, id)
}

type fakeProviderRepo struct {
	listAllFn func(ctx context.Context) ([]domain.Provider, error)
}

func (f *fakeProviderRepo) Create(context.Context, *domain.Provider) error { return nil }

func (f *fakeProviderRepo) GetByID(context.Context, string) (*domain.Provider, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeProviderRepo) Update(context.Context, *domain.Provider) error { return nil }

func (f *fakeProviderRepo) List(context.Context, repository.ListProvidersParams) ([]domain.Provider, int64, error) {
	return nil, 0, nil
}

func (f *fakeProviderRepo) ListAll(ctx context.Context) ([]domain.Provider, error) {
	if f.listAllFn == nil {
		return nil, nil
	}
	return f.listAllFn(ctx)
}

// fakeChargeRepo records created charge rows in order.
type fakeChargeRepo struct {
	mu      sync.Mutex
	created []domain.ChargeAttempt

	createFn      func(ctx context.Context, c *domain.ChargeAttempt) error
	nextOrdinalFn func(ctx context.Context, leadID, providerID string) (int, error)
}

func (f *fakeChargeRepo) Create(ctx context.Context, c *domain.ChargeAttempt) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, c); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *c)
	return nil
}

func (f *fakeChargeRepo) GetByLeadID(context.Context, string) ([]domain.ChargeAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChargeAttempt, len(f.created))
	copy(out, f.created)
	return out, nil
}

func (f *fakeChargeRepo) NextOrdinal(ctx context.Context, leadID, providerID string) (int, error) {
	if f.nextOrdinalFn != nil {
		return f.nextOrdinalFn(ctx, leadID, providerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.created {
		if c.LeadID == leadID && c.ProviderID == providerID {
			count++
		}
	}
	return count + 1, nil
}

// fakeAttemptRepo stores attempt rows in memory and records the order
// they were created.
type fakeAttemptRepo struct {
	mu      sync.Mutex
	rows    map[string]*domain.NotificationAttempt
	ordered []string

	createFn func(ctx context.Context, a *domain.NotificationAttempt) error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{rows: map[string]*domain.NotificationAttempt{}}
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.NotificationAttempt) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, a); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *a
	f.rows[a.ID] = &stored
	f.ordered = append(f.ordered, a.ID)
	return nil
}

func (f *fakeAttemptRepo) GetByID(_ context.Context, id string) (*domain.NotificationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeAttemptRepo) GetByLeadID(_ context.Context, leadID string) ([]domain.NotificationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.NotificationAttempt
	for _, id := range f.ordered {
		if f.rows[id].LeadID == leadID {
			out = append(out, *f.rows[id])
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) MarkSent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Status != domain.AttemptStatusQueued {
		return domain.ErrConflict
	}
	row.Status = domain.AttemptStatusSent
	return nil
}

func (f *fakeAttemptRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Status != domain.AttemptStatusQueued {
		return domain.ErrConflict
	}
	row.Status = domain.AttemptStatusFailed
	row.Error = &errMsg
	return nil
}

func (f *fakeAttemptRepo) attemptsOfKind(kind domain.NotificationKind) []domain.NotificationAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.NotificationAttempt
	for _, id := range f.ordered {
		if f.rows[id].Kind == kind {
			out = append(out, *f.rows[id])
		}
	}
	return out
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.NotificationMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.NotificationMessage) error {
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, queueName, msg)
}

func (f *fakePublisher) Close() error { return nil }

type fakeCharger struct {
	chargeFn func(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
}

func (f *fakeCharger) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if f.chargeFn == nil {
		return &payment.ChargeResult{TransactionID: "txn_test", StatusCode: 200}, nil
	}
	return f.chargeFn(ctx, req)
}

type fakeEmailSender struct {
	sendFn func(ctx context.Context, msg messaging.EmailMessage) error
}

func (f *fakeEmailSender) Send(ctx context.Context, msg messaging.EmailMessage) error {
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, msg)
}

type fakeSMSSender struct {
	sendFn func(ctx context.Context, msg messaging.SMSMessage) error
}

func (f *fakeSMSSender) Send(ctx context.Context, msg messaging.SMSMessage) error {
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, msg)
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, channel string) error
}

func (f *fakeRateLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	if f.waitFn == nil {
		return nil
	}
	return f.waitFn(ctx, channel)
}

// identityRanker keeps the incoming candidate order, so tests can
// control who is charged first.
type identityRanker struct{}

func (identityRanker) Rank(_ context.Context, _ *domain.Lead, candidates []domain.Provider) []domain.Provider {
	return candidates
}

func strptr(s string) *string { return &s }

func floatptr(f float64) *float64 { return &f }

func chargeProvider(id, zipTokens string) domain.Provider {
	return domain.Provider{
		ID:                 id,
		Name:               fmt.Sprintf("Provider %s", id),
		Email:              strptr(fmt.Sprintf("%s@example.com", id)),
		ZipCodes:           zipTokens,
		PaymentCustomerRef: strptr("cus_" + id),
		PaymentMethodRef:   strptr("pm_" + id),
		EligibleForLeads:   true,
	}
}

func openLead(id, zip string) *domain.Lead {
	return &domain.Lead{
		ID:         id,
		Name:       "Jordan Blake",
		Phone:      "+13105550100",
		City:       "Beverly Hills",
		State:      "CA",
		Zip:        zip,
		Urgency:    domain.UrgencyStandard,
		PriceCents: 2000,
		Status:     domain.LeadStatusOpen,
	}
}
