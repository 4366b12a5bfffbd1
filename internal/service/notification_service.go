package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/pkg/jobs"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
	"github.com/fixtrack/fixtrack-api/pkg/mailer"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type recipientResolver interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// emailJob is the payload queued for asynchronous delivery.
type emailJob struct {
	Recipient string
	Subject   string
	Body      string
}

// NotificationService creates in-app notification rows as workflow side
// effects and dispatches the email-equivalent asynchronously. Email delivery
// is best-effort: failures are logged and retried by the queue but never
// fail the transition that triggered them.
type NotificationService struct {
	repo      notificationStore
	directory recipientResolver
	mail      mailer.Mailer
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs the service. Start must be called before
// notifications are dispatched.
func NewNotificationService(repo notificationStore, directory recipientResolver, mail mailer.Mailer, metrics *MetricsService, logger *zap.Logger, queueCfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mail == nil {
		mail = mailer.NewLog(logger)
	}
	svc := &NotificationService{
		repo:      repo,
		directory: directory,
		mail:      mail,
		metrics:   metrics,
		logger:    logger,
	}
	queueCfg.Logger = logger
	svc.queue = jobs.NewQueue("notification-email", svc.deliver, queueCfg)
	return svc
}

// Start begins email queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the email queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify creates one notification row per recipient and enqueues the
// matching email. The notification row is the durable fact; the email is
// fire-and-forget.
func (s *NotificationService) Notify(ctx context.Context, recipients []string, title, message string, relatedRequestID string) {
	seen := make(map[string]struct{}, len(recipients))
	for _, recipientID := range recipients {
		if recipientID == "" {
			continue
		}
		if _, dup := seen[recipientID]; dup {
			continue
		}
		seen[recipientID] = struct{}{}

		notification := &models.Notification{
			RecipientUserID: recipientID,
			Title:           title,
			Message:         message,
		}
		if relatedRequestID != "" {
			id := relatedRequestID
			notification.RelatedRequestID = &id
		}
		if err := s.repo.Create(ctx, notification); err != nil {
			s.logger.Error("failed to persist notification",
				zap.String("recipient", recipientID), zap.String("request_id", relatedRequestID), zap.Error(err))
			continue
		}
		s.enqueueEmail(ctx, recipientID, title, message)
	}
}

func (s *NotificationService) enqueueEmail(ctx context.Context, recipientID, subject, body string) {
	user, err := s.directory.FindUserByID(ctx, recipientID)
	if err != nil {
		s.logger.Warn("cannot resolve notification recipient", zap.String("recipient", recipientID), zap.Error(err))
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("email-%s-%d", recipientID, len(subject)),
		Payload: emailJob{Recipient: user.Email, Subject: subject, Body: body},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue email", zap.String("recipient", user.Email), zap.Error(err))
	}
}

func (s *NotificationService) deliver(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(emailJob)
	if !ok {
		s.logger.Error("unexpected email payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.mail.Send(payload.Recipient, payload.Subject, payload.Body); err != nil {
		s.metrics.RecordNotification("failed")
		return err
	}
	s.metrics.RecordNotification("sent")
	return nil
}

// List returns the caller's notification feed, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// UnreadCount returns the caller's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead flags one of the caller's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to mark notification read")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags the caller's entire feed read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to mark notifications read")
	}
	return nil
}
