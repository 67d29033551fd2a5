package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"booknook-go/pkg/logger"
)

type fakeNotificationRepo struct {
	jobs          map[string]*Job
	notifications []Notification
	members       map[string][]Recipient
	insertErrors  int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		jobs:    make(map[string]*Job),
		members: make(map[string][]Recipient),
	}
}

func (r *fakeNotificationRepo) CreateJob(ctx context.Context, job *Job) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, ok := r.jobs[job.DedupKey]; ok {
		return false, nil
	}
	copied := *job
	r.jobs[job.DedupKey] = &copied
	return true, nil
}

func (r *fakeNotificationRepo) jobByID(id string) *Job {
	for _, job := range r.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (r *fakeNotificationRepo) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	var result []Job
	for _, job := range r.jobs {
		if len(result) == limit {
			break
		}
		if job.Status != JobStatusPending {
			continue
		}
		if job.NextAttemptAt != nil && job.NextAttemptAt.After(now) {
			continue
		}
		job.Status = JobStatusProcessing
		result = append(result, *job)
	}
	return result, nil
}

func (r *fakeNotificationRepo) ResetStuckJobs(ctx context.Context, startedBefore time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) CompleteJob(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	job := r.jobByID(jobID)
	job.Status = JobStatusCompleted
	job.NextAttemptAt = nil
	return nil
}

func (r *fakeNotificationRepo) RetryJob(ctx context.Context, jobID string, attempts int, next time.Time, lastError string) error {
	job := r.jobByID(jobID)
	job.Status = JobStatusPending
	job.Attempts = attempts
	job.NextAttemptAt = &next
	job.LastError = &lastError
	return nil
}

func (r *fakeNotificationRepo) FailJob(ctx context.Context, jobID string, attempts int, lastError string) error {
	job := r.jobByID(jobID)
	job.Status = JobStatusFailed
	job.Attempts = attempts
	job.NextAttemptAt = nil
	job.LastError = &lastError
	return nil
}

func (r *fakeNotificationRepo) ListRecipients(ctx context.Context, clubID string) ([]Recipient, error) {
	return r.members[clubID], nil
}

func (r *fakeNotificationRepo) InsertNotifications(ctx context.Context, rows []Notification) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.insertErrors > 0 {
		r.insertErrors--
		return nil, errors.New("connection reset")
	}
	var inserted []Notification
	for _, row := range rows {
		exists := false
		for _, existing := range r.notifications {
			if existing.UserID == row.UserID && existing.DedupKey == row.DedupKey {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		row.CreatedAt = time.Now().UTC()
		r.notifications = append(r.notifications, row)
		inserted = append(inserted, row)
	}
	return inserted, nil
}

func (r *fakeNotificationRepo) forUser(userID string) []Notification {
	var result []Notification
	for _, item := range r.notifications {
		if item.UserID == userID {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *fakeNotificationRepo) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	items := r.forUser(userID)
	if offset >= len(items) {
		return []Notification{}, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *fakeNotificationRepo) Count(ctx context.Context, userID string) (int64, error) {
	return int64(len(r.forUser(userID))), nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, item := range r.notifications {
		if item.UserID == userID && !item.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var count int64
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].IsRead {
			r.notifications[i].IsRead = true
			count++
		}
	}
	return count, nil
}

type recordingSink struct {
	mu         sync.Mutex
	delay      time.Duration
	deliveries []Delivery
}

func (s *recordingSink) Name() string {
	return "recording"
}

func (s *recordingSink) Deliver(ctx context.Context, delivery Delivery) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, delivery)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deliveries)
}

type batchSink struct {
	mu      sync.Mutex
	batches [][]Delivery
}

func (s *batchSink) Name() string {
	return "batch"
}

func (s *batchSink) Deliver(ctx context.Context, delivery Delivery) error {
	return s.DeliverBatch(ctx, []Delivery{delivery})
}

func (s *batchSink) DeliverBatch(ctx context.Context, deliveries []Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, deliveries)
	return nil
}

type failingSink struct{}

func (failingSink) Name() string {
	return "failing"
}

func (failingSink) Deliver(context.Context, Delivery) error {
	return errors.New("smtp unavailable")
}

func waitForDeliveries(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("deliveries did not finish: %v", err)
	}
}

func strPtr(value string) *string {
	return &value
}

func seedClub(repo *fakeNotificationRepo) {
	repo.members["club-1"] = []Recipient{
		{UserID: "alice", Email: strPtr("alice@example.com")},
		{UserID: "bob"},
		{UserID: "carol", Email: strPtr("carol@example.com")},
	}
}

func eventAnnouncement() Announcement {
	return Announcement{
		ClubID:      "club-1",
		Type:        TypeEventCreated,
		SourceID:    "event-1",
		Title:       "New Calendar Event",
		Description: `Mystery Lovers: "Chapter 1-5" scheduled for March 3rd 2025, 7:00 PM`,
	}
}

func TestAnnounceCreatesOneNotificationPerMember(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	sink := &recordingSink{}
	svc := NewService(repo, logger.Nop(), WithSinks(sink, failingSink{}))

	if err := svc.Publish(context.Background(), eventAnnouncement()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.notifications))
	}
	for _, item := range repo.notifications {
		if item.IsRead {
			t.Fatalf("expected unread notification, got %+v", item)
		}
		if item.ClubID == nil || *item.ClubID != "club-1" {
			t.Fatalf("expected club id club-1, got %v", item.ClubID)
		}
		if item.DedupKey != "event_created:event-1" {
			t.Fatalf("unexpected dedup key %q", item.DedupKey)
		}
	}
	waitForDeliveries(t, svc)
	if len(sink.deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(sink.deliveries))
	}
	for _, delivery := range sink.deliveries {
		if delivery.Notification.UserID == "alice" && delivery.Email != "alice@example.com" {
			t.Fatalf("expected alice email, got %q", delivery.Email)
		}
	}
	job := repo.jobs["event_created:event-1"]
	if job == nil || job.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %+v", job)
	}
}

func TestAnnounceTwiceDoesNotDuplicate(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	svc := NewService(repo, logger.Nop())

	for i := 0; i < 2; i++ {
		if err := svc.Publish(context.Background(), eventAnnouncement()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if len(repo.notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.notifications))
	}
}

func TestAnnounceRequiresSource(t *testing.T) {
	svc := NewService(newFakeNotificationRepo(), logger.Nop())
	err := svc.Publish(context.Background(), Announcement{ClubID: "club-1", Type: TypeBookAdded})
	if !errors.Is(err, ErrInvalidAnnouncement) {
		t.Fatalf("expected ErrInvalidAnnouncement, got %v", err)
	}
}

func TestAnnounceIgnoresInvalidAnnouncement(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, logger.Nop())

	svc.Announce(context.Background(), Announcement{ClubID: "club-1", Type: TypeBookAdded})
	if len(repo.jobs) != 0 {
		t.Fatalf("expected no job, got %d", len(repo.jobs))
	}
}

func TestAnnounceReturnsBeforeSlowSinks(t *testing.T) {
	repo := newFakeNotificationRepo()
	for i := 0; i < 30; i++ {
		repo.members["club-1"] = append(repo.members["club-1"], Recipient{UserID: fmt.Sprintf("member-%d", i)})
	}
	sink := &recordingSink{delay: 100 * time.Millisecond}
	svc := NewService(repo, logger.Nop(), WithSinks(sink))

	start := time.Now()
	svc.Announce(context.Background(), eventAnnouncement())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected announce to return without waiting on sinks, took %v", elapsed)
	}
	if len(repo.notifications) != 30 {
		t.Fatalf("expected 30 stored notifications, got %d", len(repo.notifications))
	}
	if job := repo.jobs["event_created:event-1"]; job.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", job.Status)
	}

	waitForDeliveries(t, svc)
	if got := sink.count(); got != 30 {
		t.Fatalf("expected 30 deliveries, got %d", got)
	}
}

func TestBatchSinkGetsOneCallPerJob(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	sink := &batchSink{}
	svc := NewService(repo, logger.Nop(), WithSinks(sink))

	svc.Announce(context.Background(), eventAnnouncement())
	waitForDeliveries(t, svc)

	if len(sink.batches) != 1 || len(sink.batches[0]) != 3 {
		t.Fatalf("expected one batch of 3, got %v", sink.batches)
	}
}

func TestAnnounceSurvivesCancelledCaller(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	svc := NewService(repo, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Announce(ctx, eventAnnouncement())

	job := repo.jobs["event_created:event-1"]
	if job == nil || job.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %+v", job)
	}
	if len(repo.notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.notifications))
	}
}

func TestFailedFanoutIsRetriedByWorker(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	repo.insertErrors = 1

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo, logger.Nop())
	svc.now = func() time.Time { return now }

	if err := svc.Publish(context.Background(), eventAnnouncement()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	job := repo.jobs["event_created:event-1"]
	if job.Status != JobStatusPending || job.Attempts != 1 {
		t.Fatalf("expected pending job with 1 attempt, got %+v", job)
	}
	if job.NextAttemptAt == nil || !job.NextAttemptAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected retry in 1 minute, got %v", job.NextAttemptAt)
	}

	worker := NewWorker(svc, logger.Nop(), time.Second, 10)
	if claimed := worker.ProcessDue(context.Background()); claimed != 0 {
		t.Fatalf("expected job not yet due, claimed %d", claimed)
	}

	now = now.Add(2 * time.Minute)
	if claimed := worker.ProcessDue(context.Background()); claimed != 1 {
		t.Fatalf("expected 1 claimed job, got %d", claimed)
	}
	if job.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", job.Status)
	}
	if len(repo.notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.notifications))
	}
}

func TestFanoutFailsAfterMaxAttempts(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	repo.insertErrors = 2

	svc := NewService(repo, logger.Nop(), WithMaxAttempts(2))
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	if err := svc.Publish(context.Background(), eventAnnouncement()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	svc.now = func() time.Time { return time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC) }
	NewWorker(svc, logger.Nop(), time.Second, 10).ProcessDue(context.Background())

	job := repo.jobs["event_created:event-1"]
	if job.Status != JobStatusFailed || job.Attempts != 2 {
		t.Fatalf("expected failed job after 2 attempts, got %+v", job)
	}
	if len(repo.notifications) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.notifications))
	}
}

func TestRetryDelayDoubles(t *testing.T) {
	cases := map[int]time.Duration{0: time.Minute, 1: 2 * time.Minute, 3: 8 * time.Minute}
	for attempts, want := range cases {
		if got := retryDelay(attempts); got != want {
			t.Fatalf("retryDelay(%d) = %v, want %v", attempts, got, want)
		}
	}
}

func TestListAndMarkRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedClub(repo)
	svc := NewService(repo, logger.Nop())
	for i, source := range []string{"a", "b", "c", "d", "e", "f"} {
		announcement := eventAnnouncement()
		announcement.SourceID = source
		if err := svc.Publish(context.Background(), announcement); err != nil {
			t.Fatalf("announce %d: %v", i, err)
		}
	}

	page, err := svc.List(context.Background(), "bob", 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(page.Items) != 5 || page.Total != 6 || page.Unread != 6 {
		t.Fatalf("expected 5 items of 6 unread, got %d items total=%d unread=%d", len(page.Items), page.Total, page.Unread)
	}

	if err := svc.MarkRead(context.Background(), "alice", page.Items[0].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for other user, got %v", err)
	}
	if err := svc.MarkRead(context.Background(), "bob", page.Items[0].ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	updated, err := svc.MarkAllRead(context.Background(), "bob")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated != 5 {
		t.Fatalf("expected 5 updated, got %d", updated)
	}
	unread, _ := repo.CountUnread(context.Background(), "bob")
	if unread != 0 {
		t.Fatalf("expected no unread, got %d", unread)
	}
}

func TestSubscribeWithoutBroker(t *testing.T) {
	svc := NewService(newFakeNotificationRepo(), logger.Nop())
	if _, err := svc.Subscribe(context.Background(), "bob"); !errors.Is(err, ErrRealtimeUnavailable) {
		t.Fatalf("expected ErrRealtimeUnavailable, got %v", err)
	}
}
