package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/models"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
	"github.com/noah-isme/datecheck-bot/pkg/jobs"
)

// NotificationSink delivers a rendered admin notification to one destination.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, notification models.AdminNotification) error
}

// NotificationService posts query summaries to the admins in the background.
// Notify never blocks and never reports failure to the caller; each sink gets
// its own job so a retry on one sink does not repeat delivery on another.
type NotificationService struct {
	sinks   map[string]NotificationSink
	order   []string
	replies *ReplyService
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// NewNotificationService wires the sinks to a worker queue. Call Start before Notify.
func NewNotificationService(sinks []NotificationSink, replies *ReplyService, metrics *MetricsService, logger *zap.Logger, queueCfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		sinks:   make(map[string]NotificationSink, len(sinks)),
		replies: replies,
		metrics: metrics,
		logger:  logger,
	}
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if _, dup := s.sinks[sink.Name()]; dup {
			continue
		}
		s.sinks[sink.Name()] = sink
		s.order = append(s.order, sink.Name())
	}

	queueCfg.Logger = logger
	queueCfg.OnGiveUp = s.giveUp
	s.queue = jobs.NewQueue("admin-notifications", s.handle, queueCfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for queued notifications until ctx expires.
func (s *NotificationService) Stop(ctx context.Context) {
	s.queue.Stop(ctx)
}

// Notify schedules record for every sink and returns immediately.
func (s *NotificationService) Notify(record models.QueryRecord) {
	text := s.replies.AdminNotification(record)
	for _, name := range s.order {
		notification := models.AdminNotification{
			ID:     uuid.NewString(),
			Sink:   name,
			Text:   text,
			Record: record,
		}
		err := s.queue.TryEnqueue(jobs.Job{ID: notification.ID, Type: name, Payload: notification})
		if err != nil {
			s.metrics.RecordNotification(name, NotificationDropped)
			s.logger.Error("admin notification dropped",
				zap.String("sink", name),
				zap.String("notification_id", notification.ID),
				zap.String("date", record.Date.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.AdminNotification)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	sink, ok := s.sinks[notification.Sink]
	if !ok {
		return fmt.Errorf("unknown sink %q", notification.Sink)
	}
	if err := sink.Deliver(ctx, notification); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrNotificationDelivery, "")
	}
	s.metrics.RecordNotification(notification.Sink, NotificationDelivered)
	return nil
}

func (s *NotificationService) giveUp(job jobs.Job, err error) {
	s.metrics.RecordNotification(job.Type, NotificationFailed)
	s.logger.Error("admin notification failed",
		zap.String("sink", job.Type),
		zap.String("notification_id", job.ID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}
