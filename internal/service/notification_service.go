package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/jobs"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type notificationRepo interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type deliveryQueue interface {
	Enqueue(job jobs.Job) error
}

// Delivery channel names used as the job kind on the queue.
const (
	deliveryKindEmail = "email"
	deliveryKindSMS   = "sms"
)

// NotificationService stores in-app notifications and dispatches outbound
// email and SMS deliveries through the background queue. A provider failure
// never fails the triggering operation: the in-app record is written first
// and each delivery is retried independently by the queue.
type NotificationService struct {
	repo   notificationRepo
	queue  deliveryQueue
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepo, queue deliveryQueue, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, queue: queue, logger: logger}
}

// Notify writes the in-app notification and queues the optional outbound
// deliveries. Queue errors are logged and swallowed so the caller's flow
// stays intact.
func (s *NotificationService) Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notification")
	}

	if email != nil {
		s.enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Kind:    deliveryKindEmail,
			Payload: email,
		})
	}
	if sms != nil {
		s.enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Kind:    deliveryKindSMS,
			Payload: sms,
		})
	}
	return nil
}

// ListForUser returns the latest notifications of a user.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification of the user as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags all notifications of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

func (s *NotificationService) enqueue(job jobs.Job) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue delivery", zap.String("kind", job.Kind), zap.Error(err))
	}
}

// NewDeliveryHandler builds the queue handler that hands each delivery to the
// provider matching its kind. Disabled providers drop deliveries with a log
// line rather than erroring, so the queue never retries a channel that is
// switched off.
func NewDeliveryHandler(email notify.EmailSender, sms notify.SMSSender, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		switch job.Kind {
		case deliveryKindEmail:
			msg, ok := job.Payload.(*notify.EmailMessage)
			if !ok || msg == nil {
				logger.Warn("malformed email delivery", zap.String("job_id", job.ID))
				return nil
			}
			if email == nil {
				logger.Info("email provider disabled, dropping delivery", zap.String("job_id", job.ID))
				return nil
			}
			return email.SendEmail(ctx, *msg)
		case deliveryKindSMS:
			msg, ok := job.Payload.(*notify.SMSMessage)
			if !ok || msg == nil {
				logger.Warn("malformed sms delivery", zap.String("job_id", job.ID))
				return nil
			}
			if sms == nil {
				logger.Info("sms provider disabled, dropping delivery", zap.String("job_id", job.ID))
				return nil
			}
			return sms.SendSMS(ctx, *msg)
		default:
			logger.Warn("unknown delivery kind", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
			return nil
		}
	}
}
