package service

import (
	"context"
	"sync"
	"time"
)

// SyncJob runs sync cycles periodically in the background.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}

type syncJob struct {
	syncer Syncer

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that calls syncer.Sync on a ticker. The job
// is idle until Start is called.
func NewSyncJob(syncer Syncer) SyncJob {
	return &syncJob{syncer: syncer}
}

// Start stops any previously running job, then launches a background
// goroutine that attempts a sync cycle every interval. The orchestrator's
// own interval gating decides whether each attempt does real work, so a
// short ticker interval is safe. If interval is zero or negative it
// defaults to 1 minute. The goroutine exits when ctx is cancelled or Stop
// is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				_, _ = j.syncer.Sync(jobCtx, false, nil)
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it has
// fully exited. Safe to call when the job is not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
