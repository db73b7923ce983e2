package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openclub/backend/internal/bookings"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/internal/notifications"
	"github.com/openclub/backend/internal/settings"
	"github.com/openclub/backend/pkg/queue"
)

// NotificationProcessor processes booking notification jobs: load the
// booking, resolve the organization's notification address, record an email
// log row, and deliver via SMTP when a mailer is configured.
type NotificationProcessor struct {
	bookingRepo *bookings.Repository
	settings    *settings.Repository
	emailLogs   *notifications.Repository
	mailer      Mailer
	queue       *queue.Queue
	logger      *zap.Logger
}

// NewNotificationProcessor creates a booking notification processor. mailer
// may be nil; jobs are then logged but not delivered.
func NewNotificationProcessor(bookingRepo *bookings.Repository, settingsRepo *settings.Repository, emailLogs *notifications.Repository, mailer Mailer, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{
		bookingRepo: bookingRepo,
		settings:    settingsRepo,
		emailLogs:   emailLogs,
		mailer:      mailer,
		queue:       q,
		logger:      logger,
	}
}

func subjectFor(event string, b *models.BookingDetail) string {
	switch event {
	case "created":
		return fmt.Sprintf("New booking: %s", b.ResourceName)
	case "cancelled":
		return fmt.Sprintf("Booking cancelled: %s", b.ResourceName)
	default:
		return fmt.Sprintf("Booking %s: %s", b.Status, b.ResourceName)
	}
}

func bodyFor(b *models.BookingDetail) string {
	return fmt.Sprintf("%s booked %s at %s\nFrom: %s\nTo:   %s\nStatus: %s\n",
		b.UserName, b.ResourceName, b.OrganizationName,
		b.StartTime.Format(time.RFC1123), b.EndTime.Format(time.RFC1123), b.Status)
}

// Process executes one booking notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBookingNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BookingNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	detail, err := p.bookingRepo.GetDetailByID(ctx, payload.BookingID)
	if err != nil {
		return fmt.Errorf("booking not found: %s", payload.BookingID)
	}

	recipient, err := p.settings.NotificationEmail(ctx, payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if recipient == "" {
		p.logger.Debug("no notification email configured",
			zap.String("organization_id", payload.OrganizationID.String()))
		return nil
	}

	el := &models.EmailLog{
		OrganizationID: payload.OrganizationID,
		BookingID:      &detail.ID,
		Recipient:      recipient,
		Subject:        subjectFor(payload.Event, detail),
		Body:           bodyFor(detail),
	}
	if err := p.emailLogs.Create(ctx, el); err != nil {
		return fmt.Errorf("record email log: %w", err)
	}

	if p.mailer == nil {
		p.logger.Info("mailer not configured, email left queued",
			zap.String("email_log_id", el.ID.String()))
		return nil
	}

	if err := p.mailer.Send(el.Recipient, el.Subject, el.Body); err != nil {
		if markErr := p.emailLogs.MarkFailed(ctx, el.ID, err.Error()); markErr != nil {
			p.logger.Error("mark email failed", zap.Error(markErr))
		}
		return fmt.Errorf("send: %w", err)
	}
	if err := p.emailLogs.MarkSent(ctx, el.ID); err != nil {
		p.logger.Error("mark email sent", zap.Error(err))
	}

	p.logger.Info("booking notification sent",
		zap.String("booking_id", detail.ID.String()),
		zap.String("event", payload.Event),
		zap.String("recipient", recipient))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
