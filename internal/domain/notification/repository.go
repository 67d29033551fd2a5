package notification

import (
	"context"
	"time"
)

type Repository interface {
	// CreateJob stores job unless a job with the same dedup key exists.
	CreateJob(ctx context.Context, job *Job) (bool, error)
	ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]Job, error)
	ResetStuckJobs(ctx context.Context, startedBefore time.Time) (int64, error)
	CompleteJob(ctx context.Context, jobID string) error
	RetryJob(ctx context.Context, jobID string, attempts int, nextAttemptAt time.Time, lastError string) error
	FailJob(ctx context.Context, jobID string, attempts int, lastError string) error

	ListRecipients(ctx context.Context, clubID string) ([]Recipient, error)
	// InsertNotifications skips rows whose (user_id, dedup_key) already exists
	// and returns only the rows it stored.
	InsertNotifications(ctx context.Context, rows []Notification) ([]Notification, error)

	List(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
