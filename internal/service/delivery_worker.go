package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/messaging"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/observability"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/queue"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/ratelimit"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)


// DeliveryWorker drains the channel queues and performs the actual
// email and SMS sends. Each message points at one QUEUED attempt row;
// the worker settles it SENT or FAILED exactly once. Transport
// failures are terminal for the attempt, no retry is scheduled.
type DeliveryWorker struct {
	attempts    repository.AttemptRepository
	leads       repository.LeadRepository
	consumer    queue.Consumer
	email       messaging.EmailSender
	sms         messaging.SMSSender
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewDeliveryWorker(
	attempts repository.AttemptRepository,
	leads repository.LeadRepository,
	consumer queue.Consumer,
	email messaging.EmailSender,
	sms messaging.SMSSender,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*DeliveryWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if email == nil || sms == nil {
		return nil, fmt.Errorf("email and sms senders are required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	// Workers are spread round-robin over the work queues, so the
	// floor is one worker per queue or a queue would never drain.
	if floor := len(queue.WorkQueueNames()); concurrency < floor {
		concurrency = floor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryWorker{
		attempts:    attempts,
		leads:       leads,
		consumer:    consumer,
		email:       email,
		sms:         sms,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *DeliveryWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the channel queues until context cancellation.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("delivery worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := w.consumer.Consume(groupCtx, queueName, w.processMessage)
			if err != nil {
				w.logger.Error("delivery worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("delivery worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (w *DeliveryWorker) processMessage(ctx context.Context, msg queue.NotificationMessage) error {
	attempt, err := w.attempts.GetByID(ctx, msg.AttemptID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.logger.Warn("attempt not found, skipping",
				zap.String("attemptId", msg.AttemptID),
			)
			return nil
		}
		return fmt.Errorf("failed to load attempt: %w", err)
	}

	// Redelivered messages may point at an attempt another worker
	// finished; ack and move on.
	if attempt.Status.IsTerminal() {
		return nil
	}

	channelName := strings.ToLower(attempt.Channel.String())
	if w.metrics != nil {
		w.metrics.IncWorkerInFlight(channelName)
		defer w.metrics.DecWorkerInFlight(channelName)
	}

	lead, err := w.leads.GetByID(ctx, attempt.LeadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return w.settleFailed(ctx, attempt, channelName, "lead no longer exists")
		}
		return fmt.Errorf("failed to load lead: %w", err)
	}

	if err := w.rateLimiter.Wait(ctx, channelName); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	sendStart := w.now()
	sendErr := w.send(ctx, attempt, lead)
	if w.metrics != nil {
		w.metrics.ObserveSendDuration(channelName, w.now().Sub(sendStart))
	}

	if sendErr != nil {
		return w.settleFailed(ctx, attempt, channelName, sendErr.Error())
	}

	if err := w.attempts.MarkSent(ctx, attempt.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to mark attempt sent: %w", err)
	}
	if w.metrics != nil {
		w.metrics.IncNotificationSent(channelName)
	}
	return nil
}

func (w *DeliveryWorker) send(ctx context.Context, attempt *domain.NotificationAttempt, lead *domain.Lead) error {
	switch attempt.Channel {
	case domain.ChannelEmail:
		msg, err := composeEmail(attempt.Kind, lead)
		if err != nil {
			return err
		}
		msg.To = attempt.Recipient
		return w.email.Send(ctx, msg)

	case domain.ChannelSMS:
		msg := messaging.ComposeLeadSMS(lead)
		msg.To = attempt.Recipient
		return w.sms.Send(ctx, msg)
	}

	return fmt.Errorf("unsupported channel %q", attempt.Channel)
}

func composeEmail(kind domain.NotificationKind, lead *domain.Lead) (messaging.EmailMessage, error) {
	switch kind {
	case domain.KindLeadOffer:
		return messaging.ComposeLeadOffer(lead), nil
	case domain.KindPaymentDeclined:
		return messaging.ComposePaymentDeclined(lead), nil
	case domain.KindFeaturedLead:
		return messaging.ComposeFeaturedLead(lead), nil
	case domain.KindAdminAlert:
		return messaging.ComposeAdminUnservedAlert(lead), nil
	}
	return messaging.EmailMessage{}, fmt.Errorf("no email template for kind %q", kind)
}

func (w *DeliveryWorker) settleFailed(ctx context.Context, attempt *domain.NotificationAttempt, channelName, reason string) error {
	w.logger.Warn("notification send failed",
		zap.String("attemptId", attempt.ID),
		zap.String("leadId", attempt.LeadID),
		zap.String("channel", channelName),
		zap.String("reason", reason),
	)

	if err := w.attempts.MarkFailed(ctx, attempt.ID, reason); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to mark attempt failed: %w", err)
	}
	if w.metrics != nil {
		w.metrics.IncNotificationFailed(channelName)
	}
	return nil
}
