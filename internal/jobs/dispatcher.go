// Package jobs defines background tasks such as pull request reviews.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/core"
)

// ErrQueueFull is returned by Dispatch when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full, cannot accept new review job")

// ErrDispatcherStopped is returned by Dispatch once Stop has been called.
var ErrDispatcherStopped = errors.New("dispatcher is stopped")

// dispatcher implements core.JobDispatcher and manages a pool of worker goroutines
// for processing GitHub events as review jobs.
type dispatcher struct {
	job        core.Job
	jobQueue   chan *core.GitHubEvent
	maxWorkers int
	timeout    time.Duration
	wg         sync.WaitGroup
	stopOnce   sync.Once
	// mu guards stopped and the close of jobQueue.
	mu      sync.RWMutex
	stopped bool
	logger  *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// Non-positive sizes fall back to one worker and a queue of 100.
func NewDispatcher(job core.Job, cfg config.JobsConfig, logger *slog.Logger) core.JobDispatcher {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		timeout:    cfg.Timeout,
		jobQueue:   make(chan *core.GitHubEvent, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting review worker", "id", workerID)

	for event := range d.jobQueue {
		d.processEvent(workerID, event)
	}

	d.logger.Debug("shutting down review worker", "id", workerID)
}

// processEvent runs one job. A panicking job is logged and does not take the
// worker down with it.
func (d *dispatcher) processEvent(workerID int, event *core.GitHubEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("review job panicked",
				"worker_id", workerID,
				"repo", event.RepoFullName,
				"pr", event.PRNumber,
				"panic", r,
			)
		}
	}()

	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
	)

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.job.Run(ctx, event); err != nil {
		d.logger.Error("review job failed",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues a GitHub event for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, event *core.GitHubEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	d.logger.Info("queuing review job", "repo", event.RepoFullName, "pr", event.PRNumber)
	select {
	case d.jobQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping dispatcher and waiting for jobs to finish")
		d.mu.Lock()
		d.stopped = true
		close(d.jobQueue)
		d.mu.Unlock()
		d.wg.Wait()
		d.logger.Info("all review jobs have finished")
	})
}
