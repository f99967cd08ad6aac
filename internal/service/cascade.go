package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/observability"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/payment"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/pricing"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

// CascadeService delivers a lead to at most one paying provider. It
// charges eligible candidates in ranker order, stops at the first
// success, and settles the lead either DELIVERED or UNSERVED.
type CascadeService struct {
	leads      repository.LeadRepository
	providers  repository.ProviderRepository
	charges    repository.ChargeAttemptRepository
	matcher    *match.Matcher
	ranker     CandidateRanker
	charger    payment.Charger
	outbox     *NotificationOutbox
	adminEmail string
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// DispatchResult summarizes one cascade run over a lead.
type DispatchResult struct {
	LeadID         string
	Status         domain.LeadStatus
	RoutedToID     *string
	CandidateCount int
	ChargesTried   int
}

func NewCascadeService(
	leads repository.LeadRepository,
	providers repository.ProviderRepository,
	charges repository.ChargeAttemptRepository,
	matcher *match.Matcher,
	ranker CandidateRanker,
	charger payment.Charger,
	outbox *NotificationOutbox,
	adminEmail string,
	logger *zap.Logger,
) (*CascadeService, error) {
	if matcher == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	if ranker == nil {
		return nil, fmt.Errorf("candidate ranker is required")
	}
	if charger == nil {
		return nil, fmt.Errorf("payment charger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CascadeService{
		leads:      leads,
		providers:  providers,
		charges:    charges,
		matcher:    matcher,
		ranker:     ranker,
		charger:    charger,
		outbox:     outbox,
		adminEmail: adminEmail,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *CascadeService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Dispatch runs the cascade for one OPEN lead. Individual declines are
// absorbed and drive continuation; only candidate exhaustion escalates,
// as an UNSERVED outcome plus an admin alert. Charge attempts are
// strictly sequential so no two providers can be charged for the same
// lead within one run.
func (s *CascadeService) Dispatch(ctx context.Context, lead *domain.Lead) (*DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if lead == nil {
		return nil, fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}
	if lead.Status != domain.LeadStatusOpen {
		return nil, fmt.Errorf("%w: lead %s is already %s", domain.ErrConflict, lead.ID, lead.Status)
	}

	correlationID := uuid.NewString()

	all, err := s.providers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	candidates := make([]domain.Provider, 0, len(all))
	for i := range all {
		if s.matcher.IsEligible(ctx, &all[i], lead, match.ModeChargeCascade) {
			candidates = append(candidates, all[i])
		}
	}

	result := &DispatchResult{
		LeadID:         lead.ID,
		CandidateCount: len(candidates),
	}

	ordered := s.ranker.Rank(ctx, lead, candidates)
	for i := range ordered {
		candidate := &ordered[i]

		charged, err := s.chargeCandidate(ctx, lead, candidate)
		if err != nil {
			return nil, err
		}
		result.ChargesTried++

		if !charged {
			s.notifyProvider(ctx, lead, candidate, domain.KindPaymentDeclined, correlationID)
			continue
		}

		routedAt := s.now().UTC()
		if err := s.leads.MarkDelivered(ctx, lead.ID, candidate.ID, routedAt); err != nil {
			// The charge already succeeded; a conflict here means a
			// concurrent run settled the lead first. The idempotency key
			// keeps the gateway from double-billing on replay, but the
			// mismatch needs an operator's eyes.
			s.logger.Error("charge succeeded but lead transition failed",
				zap.String("leadId", lead.ID),
				zap.String("providerId", candidate.ID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to mark lead delivered: %w", err)
		}

		lead.Status = domain.LeadStatusDelivered
		lead.RoutedToID = &candidate.ID
		lead.RoutedAt = &routedAt

		s.notifyProvider(ctx, lead, candidate, domain.KindLeadOffer, correlationID)

		if s.metrics != nil {
			s.metrics.IncLeadSettled(string(domain.LeadStatusDelivered))
		}
		s.logger.Info("lead delivered",
			zap.String("leadId", lead.ID),
			zap.String("providerId", candidate.ID),
			zap.Int("candidates", result.CandidateCount),
			zap.Int("chargesTried", result.ChargesTried),
		)

		result.Status = domain.LeadStatusDelivered
		result.RoutedToID = &candidate.ID
		return result, nil
	}

	if err := s.leads.MarkUnserved(ctx, lead.ID); err != nil {
		return nil, fmt.Errorf("failed to mark lead unserved: %w", err)
	}
	lead.Status = domain.LeadStatusUnserved

	s.sendAdminAlert(ctx, lead, correlationID)

	if s.metrics != nil {
		s.metrics.IncLeadSettled(string(domain.LeadStatusUnserved))
	}
	s.logger.Warn("lead unserved",
		zap.String("leadId", lead.ID),
		zap.String("zip", lead.Zip),
		zap.String("urgency", string(lead.Urgency)),
		zap.Int("candidates", result.CandidateCount),
	)

	result.Status = domain.LeadStatusUnserved
	return result, nil
}

// chargeCandidate attempts one off-session charge and persists the
// audit row. It returns true only on gateway success; declines and
// transport failures both count as a miss for this candidate.
func (s *CascadeService) chargeCandidate(ctx context.Context, lead *domain.Lead, p *domain.Provider) (bool, error) {
	ordinal, err := s.charges.NextOrdinal(ctx, lead.ID, p.ID)
	if err != nil {
		return false, fmt.Errorf("failed to compute charge ordinal: %w", err)
	}

	key := domain.ChargeIdempotencyKey(lead.ID, p.ID, ordinal)
	req := payment.ChargeRequest{
		CustomerRef:    derefString(p.PaymentCustomerRef),
		MethodRef:      derefString(p.PaymentMethodRef),
		AmountCents:    lead.PriceCents,
		Currency:       pricing.Currency,
		IdempotencyKey: key,
		Metadata: map[string]string{
			"lead_id":     lead.ID,
			"provider_id": p.ID,
		},
	}

	_, chargeErr := s.charger.Charge(ctx, req)

	attempt := domain.ChargeAttempt{
		ID:             uuid.NewString(),
		LeadID:         lead.ID,
		ProviderID:     p.ID,
		Ordinal:        ordinal,
		AmountCents:    lead.PriceCents,
		Currency:       req.Currency,
		IdempotencyKey: key,
	}

	switch {
	case chargeErr == nil:
		attempt.Outcome = domain.ChargeSucceeded
	case payment.IsDeclined(chargeErr):
		attempt.Outcome = domain.ChargeDeclined
		reason := payment.DeclineReason(chargeErr)
		attempt.Reason = &reason
	default:
		// Transport errors, including timeouts, advance the cascade the
		// same way a decline does.
		attempt.Outcome = domain.ChargeErrored
		reason := chargeErr.Error()
		attempt.Reason = &reason
	}

	if err := s.charges.Create(ctx, &attempt); err != nil {
		if attempt.Outcome == domain.ChargeSucceeded {
			// Never lose the record of a successful charge.
			return false, fmt.Errorf("charge succeeded but audit row failed: %w", err)
		}
		s.logger.Error("failed to record charge attempt",
			zap.String("leadId", lead.ID),
			zap.String("providerId", p.ID),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.IncChargeAttempt(string(attempt.Outcome))
	}
	if chargeErr != nil {
		s.logger.Info("charge attempt missed",
			zap.String("leadId", lead.ID),
			zap.String("providerId", p.ID),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Int("ordinal", ordinal),
		)
	}

	return chargeErr == nil, nil
}

// notifyProvider enqueues a provider-facing email. Sends are
// best-effort and never affect the cascade outcome.
func (s *CascadeService) notifyProvider(
	ctx context.Context,
	lead *domain.Lead,
	p *domain.Provider,
	kind domain.NotificationKind,
	correlationID string,
) {
	if s.outbox == nil {
		return
	}

	recipient, ok := p.ContactEmail()
	if !ok {
		s.logger.Warn("provider has no reachable email, skipping notification",
			zap.String("leadId", lead.ID),
			zap.String("providerId", p.ID),
			zap.String("kind", string(kind)),
		)
		return
	}

	providerID := p.ID
	_, err := s.outbox.Enqueue(ctx, domain.NotificationAttempt{
		LeadID:     lead.ID,
		ProviderID: &providerID,
		Channel:    domain.ChannelEmail,
		Kind:       kind,
		Recipient:  recipient,
	}, correlationID)
	if err != nil {
		s.logger.Error("failed to enqueue provider notification",
			zap.String("leadId", lead.ID),
			zap.String("providerId", p.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func (s *CascadeService) sendAdminAlert(ctx context.Context, lead *domain.Lead, correlationID string) {
	if s.outbox == nil || s.adminEmail == "" {
		return
	}

	_, err := s.outbox.Enqueue(ctx, domain.NotificationAttempt{
		LeadID:    lead.ID,
		Channel:   domain.ChannelEmail,
		Kind:      domain.KindAdminAlert,
		Recipient: s.adminEmail,
	}, correlationID)
	if err != nil {
		s.logger.Error("failed to enqueue admin alert",
			zap.String("leadId", lead.ID),
			zap.Error(err),
		)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
