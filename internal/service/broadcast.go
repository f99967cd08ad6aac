package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

// BroadcastService fans a lead out to provider classes without
// charging anyone. It runs independently of the cascade and its
// outcome has no effect on lead status.
type BroadcastService struct {
	providers repository.ProviderRepository
	matcher   *match.Matcher
	distance  *geo.Distance
	outbox    *NotificationOutbox
	logger    *zap.Logger
}

func NewBroadcastService(
	providers repository.ProviderRepository,
	matcher *match.Matcher,
	distance *geo.Distance,
	outbox *NotificationOutbox,
	logger *zap.Logger,
) (*BroadcastService, error) {
	if matcher == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("notification outbox is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BroadcastService{
		providers: providers,
		matcher:   matcher,
		distance:  distance,
		outbox:    outbox,
		logger:    logger,
	}, nil
}

// NotifyFeatured emails every featured, notification-enabled provider
// whose coverage matches the lead by state or ZIP. One attempt row is
// recorded per match; a failed enqueue skips that provider only.
func (s *BroadcastService) NotifyFeatured(ctx context.Context, lead *domain.Lead) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if lead == nil {
		return 0, fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}

	correlationID := uuid.NewString()

	all, err := s.providers.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list providers: %w", err)
	}

	enqueued := 0
	for i := range all {
		p := &all[i]
		if !s.matcher.IsEligible(ctx, p, lead, match.ModeFeaturedBroadcast) {
			continue
		}

		recipient, ok := p.ContactEmail()
		if !ok {
			continue
		}

		providerID := p.ID
		_, err := s.outbox.Enqueue(ctx, domain.NotificationAttempt{
			LeadID:     lead.ID,
			ProviderID: &providerID,
			Channel:    domain.ChannelEmail,
			Kind:       domain.KindFeaturedLead,
			Recipient:  recipient,
		}, correlationID)
		if err != nil {
			s.logger.Error("failed to enqueue featured notification",
				zap.String("leadId", lead.ID),
				zap.String("providerId", p.ID),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	s.logger.Info("featured broadcast enqueued",
		zap.String("leadId", lead.ID),
		zap.Int("recipients", enqueued),
	)
	return enqueued, nil
}

// BlastSMS texts every SMS-eligible provider matching the lead,
// closest first. Providers whose distance cannot be resolved are sent
// last; ordering affects send order and logging only, never who is
// included.
func (s *BroadcastService) BlastSMS(ctx context.Context, lead *domain.Lead) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if lead == nil {
		return 0, fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}

	correlationID := uuid.NewString()

	all, err := s.providers.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list providers: %w", err)
	}

	type target struct {
		provider *domain.Provider
		phone    string
		miles    *float64
		position int
	}

	targets := make([]target, 0)
	for i := range all {
		p := &all[i]
		if !s.matcher.IsEligible(ctx, p, lead, match.ModeSMSBroadcast) {
			continue
		}

		phone, ok := p.ContactPhone()
		if !ok {
			continue
		}

		entry := target{provider: p, phone: phone, position: len(targets)}
		if s.distance != nil {
			if homeZip, ok := p.HomeZip(); ok {
				if miles, err := s.distance.Miles(ctx, homeZip, lead.Zip); err == nil {
					entry.miles = miles
				}
			}
		}
		targets = append(targets, entry)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		switch {
		case a.miles != nil && b.miles != nil:
			return *a.miles < *b.miles
		case a.miles != nil:
			return true
		case b.miles != nil:
			return false
		default:
			return a.position < b.position
		}
	})

	enqueued := 0
	for _, entry := range targets {
		providerID := entry.provider.ID
		_, err := s.outbox.Enqueue(ctx, domain.NotificationAttempt{
			LeadID:     lead.ID,
			ProviderID: &providerID,
			Channel:    domain.ChannelSMS,
			Kind:       domain.KindSMSBlast,
			Recipient:  entry.phone,
		}, correlationID)
		if err != nil {
			s.logger.Error("failed to enqueue sms blast",
				zap.String("leadId", lead.ID),
				zap.String("providerId", entry.provider.ID),
				zap.Error(err),
			)
			continue
		}

		if entry.miles != nil {
			s.logger.Debug("sms blast target",
				zap.String("leadId", lead.ID),
				zap.String("providerId", entry.provider.ID),
				zap.Float64("miles", *entry.miles),
			)
		}
		enqueued++
	}

	s.logger.Info("sms blast enqueued",
		zap.String("leadId", lead.ID),
		zap.Int("recipients", enqueued),
	)
	return enqueued, nil
}
