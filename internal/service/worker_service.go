package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kushabhinav13/notification-service/internal/adapter"
	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/observability"
	"github.com/kushabhinav13/notification-service/internal/queue"
	"github.com/kushabhinav13/notification-service/internal/ratelimit"
	"github.com/kushabhinav13/notification-service/internal/repository"
	"github.com/kushabhinav13/notification-service/internal/retry"
)

const (
	defaultSendTimeout = 10 * time.Second
	defaultConcurrency = 16
)

// WorkerConfig wires the dispatch worker pool.
type WorkerConfig struct {
	Repo        repository.NotificationRepository
	Attempts    repository.AttemptRepository
	Consumer    queue.Consumer
	Publisher   queue.Publisher
	Adapters    *adapter.Registry
	RateLimiter ratelimit.RateLimiter
	Policy      retry.Policy
	Metrics     *observability.Metrics
	SendTimeout time.Duration
	Concurrency int
	Logger      *zap.Logger
}

// WorkerService consumes delivery tasks and drives each notification to a
// terminal status. Redeliveries are absorbed by the claim guard, so processing
// the same task twice never produces a second send after settlement.
type WorkerService struct {
	repo        repository.NotificationRepository
	attempts    repository.AttemptRepository
	consumer    queue.Consumer
	publisher   queue.Publisher
	adapters    *adapter.Registry
	rateLimiter ratelimit.RateLimiter
	policy      retry.Policy
	metrics     *observability.Metrics

	sendTimeout time.Duration
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func NewWorkerService(cfg WorkerConfig) (*WorkerService, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if cfg.Attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if cfg.Consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("queue publisher is required")
	}
	if cfg.Adapters == nil {
		return nil, fmt.Errorf("adapter registry is required")
	}

	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		repo:        cfg.Repo,
		attempts:    cfg.Attempts,
		consumer:    cfg.Consumer,
		publisher:   cfg.Publisher,
		adapters:    cfg.Adapters,
		rateLimiter: cfg.RateLimiter,
		policy:      cfg.Policy,
		metrics:     cfg.Metrics,
		sendTimeout: sendTimeout,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Start runs the worker pool until ctx is cancelled or a consumer fails.
func (s *WorkerService) Start(ctx context.Context) error {
	s.logger.Info("starting dispatch workers",
		zap.Int("concurrency", s.concurrency),
		zap.Duration("send_timeout", s.sendTimeout),
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		g.Go(func() error {
			return s.consumer.Consume(ctx, s.ProcessTask)
		})
	}

	return g.Wait()
}

// ProcessTask handles one delivery task. Returning nil acknowledges the task;
// returning an error makes it visible for redelivery, so only infrastructure
// failures (DB, broker) may error out. Domain outcomes always settle the
// notification and ack.
func (s *WorkerService) ProcessTask(ctx context.Context, task queue.DeliveryTask) error {
	logger := s.logger.With(
		zap.String("notification_id", task.NotificationID),
		zap.Int("task_attempt", task.Attempt),
	)

	n, err := s.repo.ClaimForDelivery(ctx, task.NotificationID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("delivery task references unknown notification, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim notification %s: %w", task.NotificationID, err)
	}
	if n == nil {
		logger.Debug("notification already settled, skipping redelivered task")
		return nil
	}

	channel := n.Channel.String()
	s.metrics.IncWorkerInFlight(channel)
	defer s.metrics.DecWorkerInFlight(channel)

	// A crash between RecordAttempt and settlement redelivers the task with
	// the row still PENDING and no attempts left. Settle without sending so
	// attempt_count never passes MaxAttempts.
	if s.policy.MaxAttempts > 0 && n.AttemptCount >= s.policy.MaxAttempts {
		s.metrics.IncNotificationFailed(channel, "retries_exhausted")
		logger.Error("retries exhausted on redelivered task",
			zap.Int("attempt_count", n.AttemptCount),
		)
		reason := fmt.Sprintf("retries exhausted after %d attempts", n.AttemptCount)
		return s.settleFailed(ctx, logger, n.ID, reason)
	}

	channelAdapter := s.adapters.For(n.Channel)
	if channelAdapter == nil {
		reason := fmt.Sprintf("no adapter registered for channel %s", n.Channel)
		s.metrics.IncNotificationFailed(channel, "no_adapter")
		return s.settleFailed(ctx, logger, n.ID, reason)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, strings.ToLower(channel)); err != nil {
			return fmt.Errorf("rate limit wait for channel %s: %w", channel, err)
		}
	}

	attempt, err := s.repo.RecordAttempt(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("record attempt for notification %s: %w", n.ID, err)
	}

	started := s.now()
	result, sendErr := s.send(ctx, channelAdapter, *n)
	s.metrics.ObserveSendDuration(channel, s.now().Sub(started))
	s.auditAttempt(ctx, logger, n.ID, attempt, result, sendErr)

	if sendErr == nil {
		if err := s.markSent(ctx, logger, n.ID); err != nil {
			return err
		}
		s.metrics.IncNotificationSent(channel)
		logger.Info("notification delivered", zap.Int("attempt", attempt))
		return nil
	}

	if adapter.IsTransient(sendErr) {
		decision := s.policy.Decide(attempt, true)
		if decision.Retry {
			retryTask := queue.DeliveryTask{NotificationID: n.ID, Attempt: attempt + 1}
			if err := s.publisher.Publish(ctx, retryTask, decision.Delay); err != nil {
				return fmt.Errorf("schedule retry for notification %s: %w", n.ID, err)
			}
			s.metrics.IncRetryScheduled(channel)
			logger.Warn("transient delivery failure, retry scheduled",
				zap.Int("attempt", attempt),
				zap.Duration("delay", decision.Delay),
				zap.Error(sendErr),
			)
			return nil
		}

		s.metrics.IncNotificationFailed(channel, "retries_exhausted")
		logger.Error("retries exhausted",
			zap.Int("attempt", attempt),
			zap.Error(sendErr),
		)
		reason := fmt.Sprintf("retries exhausted after %d attempts: %s", attempt, sendErr)
		return s.settleFailed(ctx, logger, n.ID, reason)
	}

	s.metrics.IncNotificationFailed(channel, "permanent_error")
	logger.Error("permanent delivery failure",
		zap.Int("attempt", attempt),
		zap.Error(sendErr),
	)
	return s.settleFailed(ctx, logger, n.ID, sendErr.Error())
}

// send calls the channel adapter under the per-attempt timeout. A panicking
// adapter is contained and classified as a transient failure so the task
// follows the normal retry path instead of crashing the worker.
func (s *WorkerService) send(ctx context.Context, channelAdapter adapter.Adapter, n domain.Notification) (result *adapter.SendResult, err error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &adapter.AdapterError{
				Message:   fmt.Sprintf("adapter panic: %v", r),
				Transient: true,
			}
		}
	}()

	return channelAdapter.Send(sendCtx, n)
}

func (s *WorkerService) auditAttempt(ctx context.Context, logger *zap.Logger, notificationID string, attempt int, result *adapter.SendResult, sendErr error) {
	record := &domain.DeliveryAttempt{
		NotificationID: notificationID,
		AttemptNumber:  attempt,
	}

	if result != nil && result.StatusCode > 0 {
		code := result.StatusCode
		record.StatusCode = &code
	}
	if sendErr != nil {
		var adapterErr *adapter.AdapterError
		if errors.As(sendErr, &adapterErr) && adapterErr.StatusCode > 0 {
			code := adapterErr.StatusCode
			record.StatusCode = &code
		}
		msg := sendErr.Error()
		record.Error = &msg
	}

	// Audit rows are best-effort; the notification row keeps the canonical
	// attempt_count either way.
	if err := s.attempts.Create(ctx, record); err != nil {
		logger.Warn("failed to persist delivery attempt record", zap.Error(err))
	}
}

func (s *WorkerService) markSent(ctx context.Context, logger *zap.Logger, id string) error {
	err := s.repo.MarkSent(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		logger.Warn("notification settled concurrently, keeping existing terminal status", zap.Error(err))
		return nil
	}
	return fmt.Errorf("mark notification %s sent: %w", id, err)
}

func (s *WorkerService) settleFailed(ctx context.Context, logger *zap.Logger, id string, reason string) error {
	err := s.repo.MarkFailed(ctx, id, reason)
	if err == nil {
		logger.Error("notification failed", zap.String("reason", reason))
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		logger.Warn("notification settled concurrently, keeping existing terminal status", zap.Error(err))
		return nil
	}
	return fmt.Errorf("mark notification %s failed: %w", id, err)
}
