package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/queue"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

// NotificationOutbox persists an attempt row before publishing the
// delivery message. The row is the audit record: QUEUED on enqueue,
// SENT or FAILED once the delivery worker finishes with it. A publish
// failure marks the row FAILED immediately so nothing dangles in QUEUED.
type NotificationOutbox struct {
	attempts  repository.AttemptRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewNotificationOutbox(
	attempts repository.AttemptRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) *NotificationOutbox {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationOutbox{
		attempts:  attempts,
		publisher: publisher,
		logger:    logger,
	}
}

// Enqueue records one attempt and hands it to the broker. The returned
// attempt carries the generated ID.
func (o *NotificationOutbox) Enqueue(
	ctx context.Context,
	attempt domain.NotificationAttempt,
	correlationID string,
) (*domain.NotificationAttempt, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt.ID = uuid.NewString()
	attempt.Status = domain.AttemptStatusQueued
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	if err := o.attempts.Create(ctx, &attempt); err != nil {
		return nil, fmt.Errorf("failed to create notification attempt: %w", err)
	}

	msg := queue.NotificationMessage{
		AttemptID:     attempt.ID,
		LeadID:        attempt.LeadID,
		Channel:       attempt.Channel,
		Kind:          attempt.Kind,
		CorrelationID: correlationID,
	}
	if attempt.ProviderID != nil {
		msg.ProviderID = *attempt.ProviderID
	}

	if err := o.publisher.Publish(ctx, queue.QueueName(attempt.Channel), msg); err != nil {
		o.logger.Error("failed to publish notification attempt",
			zap.String("attemptId", attempt.ID),
			zap.String("leadId", attempt.LeadID),
			zap.String("channel", attempt.Channel.String()),
			zap.Error(err),
		)
		if markErr := o.attempts.MarkFailed(ctx, attempt.ID, fmt.Sprintf("publish: %v", err)); markErr != nil {
			o.logger.Error("failed to mark attempt failed after publish error",
				zap.String("attemptId", attempt.ID),
				zap.Error(markErr),
			)
		}
		return nil, fmt.Errorf("failed to publish notification attempt: %w", err)
	}

	return &attempt, nil
}
