package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"booknook-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultMaxAttempts     = 5
	defaultPageSize        = 5
	maxPageSize            = 50
	retryBaseDelay         = time.Minute
	defaultDispatchWorkers = 4
	deliveryTimeout        = time.Minute
)

type Service struct {
	repo        Repository
	log         logger.Logger
	sinks       []Sink
	broker      Broker
	recorder    Recorder
	maxAttempts int
	now         func() time.Time

	slots    chan struct{}
	inflight sync.WaitGroup
}

type Option func(*Service)

// WithBroker sets the realtime broker. It also receives every delivery.
func WithBroker(broker Broker) Option {
	return func(s *Service) {
		s.broker = broker
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithDispatchWorkers bounds how many jobs push to the broker and sinks at once.
func WithDispatchWorkers(workers int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.slots = make(chan struct{}, workers)
		}
	}
}

func NewService(repo Repository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		log:         log,
		recorder:    nopRecorder{},
		maxAttempts: defaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		slots:       make(chan struct{}, defaultDispatchWorkers),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Announce is the best-effort form of Publish used by the club services.
func (s *Service) Announce(ctx context.Context, announcement Announcement) {
	if err := s.Publish(ctx, announcement); errors.Is(err, ErrInvalidAnnouncement) {
		s.log.BusinessError("notifications.announce: invalid announcement", err,
			"club_id", announcement.ClubID, "type", announcement.Type, "source_id", announcement.SourceID)
	}
}

// Publish records a fan-out job for the announcement and runs it once.
// The notification rows are stored before it returns; the broker and sinks
// are fed in the background. A failed run is retried by the Worker, and an
// error is returned only when the job could not be recorded.
func (s *Service) Publish(ctx context.Context, announcement Announcement) error {
	if strings.TrimSpace(announcement.ClubID) == "" ||
		strings.TrimSpace(announcement.Type) == "" ||
		strings.TrimSpace(announcement.SourceID) == "" {
		return ErrInvalidAnnouncement
	}

	// The entity behind the announcement is already stored; a caller that
	// goes away must not strand its job.
	ctx = context.WithoutCancel(ctx)

	job := Job{
		ID:          uuid.NewString(),
		ClubID:      announcement.ClubID,
		Title:       announcement.Title,
		Description: announcement.Description,
		Type:        announcement.Type,
		DedupKey:    announcement.DedupKey(),
		Status:      JobStatusProcessing,
		MaxAttempts: s.maxAttempts,
	}

	created, err := s.repo.CreateJob(ctx, &job)
	if err != nil {
		s.log.InternalError("notifications.announce: record job failed", err, "club_id", job.ClubID, "dedup_key", job.DedupKey)
		return fmt.Errorf("record fan-out job: %w", err)
	}
	if !created {
		s.log.Debug("notifications.announce: duplicate announcement ignored", "dedup_key", job.DedupKey)
		return nil
	}

	s.process(ctx, &job)
	return nil
}

func (s *Service) process(ctx context.Context, job *Job) {
	ctx = context.WithoutCancel(ctx)

	count, err := s.fanout(ctx, job)
	if err != nil {
		s.reschedule(ctx, job, err)
		return
	}

	if err := s.repo.CompleteJob(ctx, job.ID); err != nil {
		s.log.InternalError("notifications.fanout: complete job failed", err, "job_id", job.ID)
		return
	}
	s.recorder.FanoutJob("completed")
	s.log.Debug("notifications.fanout: job completed", "job_id", job.ID, "type", job.Type, "created", count)
}

func (s *Service) fanout(ctx context.Context, job *Job) (int, error) {
	recipients, err := s.repo.ListRecipients(ctx, job.ClubID)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	clubID := job.ClubID
	emails := make(map[string]string, len(recipients))
	rows := make([]Notification, 0, len(recipients))
	for _, recipient := range recipients {
		if recipient.Email != nil {
			emails[recipient.UserID] = *recipient.Email
		}
		rows = append(rows, Notification{
			ID:          uuid.NewString(),
			UserID:      recipient.UserID,
			ClubID:      &clubID,
			Title:       job.Title,
			Description: job.Description,
			Type:        job.Type,
			IsRead:      false,
			DedupKey:    job.DedupKey,
		})
	}

	inserted, err := s.repo.InsertNotifications(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	s.recorder.NotificationsCreated(job.Type, len(inserted))

	deliveries := make([]Delivery, 0, len(inserted))
	for _, item := range inserted {
		deliveries = append(deliveries, Delivery{Notification: item, Email: emails[item.UserID]})
	}
	s.dispatch(ctx, job.ID, deliveries)
	return len(inserted), nil
}

// dispatch feeds deliveries to the broker and sinks off the caller's path.
// At most cap(s.slots) jobs deliver at once; Wait drains the rest.
func (s *Service) dispatch(ctx context.Context, jobID string, deliveries []Delivery) {
	if len(deliveries) == 0 || (s.broker == nil && len(s.sinks) == 0) {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.slots <- struct{}{}
		defer func() { <-s.slots }()

		ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()
		s.deliver(ctx, jobID, deliveries)
	}()
}

func (s *Service) deliver(ctx context.Context, jobID string, deliveries []Delivery) {
	if s.broker != nil {
		for _, delivery := range deliveries {
			if err := s.broker.Deliver(ctx, delivery); err != nil {
				s.log.Warn("notifications.deliver: sink failed", "sink", s.broker.Name(), "err", err, "notification_id", delivery.Notification.ID)
			}
		}
	}
	for _, sink := range s.sinks {
		if batch, ok := sink.(BatchSink); ok {
			if err := batch.DeliverBatch(ctx, deliveries); err != nil {
				s.log.Warn("notifications.deliver: sink failed", "sink", sink.Name(), "err", err, "job_id", jobID, "count", len(deliveries))
			}
			continue
		}
		for _, delivery := range deliveries {
			if err := sink.Deliver(ctx, delivery); err != nil {
				s.log.Warn("notifications.deliver: sink failed", "sink", sink.Name(), "err", err, "notification_id", delivery.Notification.ID)
			}
		}
	}
}

// Wait blocks until background deliveries finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) reschedule(ctx context.Context, job *Job, cause error) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		if err := s.repo.FailJob(ctx, job.ID, attempts, cause.Error()); err != nil {
			s.log.InternalError("notifications.fanout: fail job failed", err, "job_id", job.ID)
		}
		s.recorder.FanoutJob("failed")
		s.log.InternalError("notifications.fanout: job failed after max attempts", cause, "job_id", job.ID, "attempts", attempts)
		return
	}

	next := s.now().Add(retryDelay(job.Attempts))
	if err := s.repo.RetryJob(ctx, job.ID, attempts, next, cause.Error()); err != nil {
		s.log.InternalError("notifications.fanout: reschedule job failed", err, "job_id", job.ID)
	}
	s.recorder.FanoutJob("retry")
	s.log.Warn("notifications.fanout: job failed, will retry", "err", cause, "job_id", job.ID, "attempts", attempts, "next_attempt_at", next)
}

func retryDelay(previousAttempts int) time.Duration {
	if previousAttempts < 0 {
		previousAttempts = 0
	}
	return retryBaseDelay * time.Duration(1<<previousAttempts)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Total: total, Unread: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if strings.TrimSpace(notificationID) == "" {
		return ErrNotificationNotFound
	}
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Subscribe(ctx context.Context, userID string) (<-chan Notification, error) {
	if s.broker == nil {
		return nil, ErrRealtimeUnavailable
	}
	return s.broker.Subscribe(ctx, userID)
}
