package notification

import (
	"context"
	"time"

	"booknook-go/pkg/logger"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 10
	stuckJobTimeout     = 5 * time.Minute
)

// Worker retries fan-out jobs whose first run failed or was interrupted.
type Worker struct {
	service      *Service
	log          logger.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewWorker(service *Service, log logger.Logger, pollInterval time.Duration, batchSize int) *Worker {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Worker{
		service:      service,
		log:          log,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info("notifications.worker: started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("notifications.worker: stopped")
			return
		case <-ticker.C:
			w.ProcessDue(ctx)
		}
	}
}

// ProcessDue runs one polling round and returns the number of jobs it claimed.
func (w *Worker) ProcessDue(ctx context.Context) int {
	repo := w.service.repo
	now := w.service.now()

	reset, err := repo.ResetStuckJobs(ctx, now.Add(-stuckJobTimeout))
	if err != nil {
		w.log.Warn("notifications.worker: reset stuck jobs failed", "err", err)
	} else if reset > 0 {
		w.log.Warn("notifications.worker: reset stuck jobs", "count", reset)
	}

	jobs, err := repo.ClaimDueJobs(ctx, now, w.batchSize)
	if err != nil {
		w.log.InternalError("notifications.worker: claim jobs failed", err)
		return 0
	}

	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		w.service.process(ctx, &jobs[i])
	}
	return len(jobs)
}
