package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"tumdlr/pkg/ledger"
	"tumdlr/pkg/logger"
	"tumdlr/pkg/tumblr"
)

// Task represents a single media download
type Task struct {
	Asset      tumblr.Asset
	ContentID  string
	TargetPath string
	Blog       string
	PostID     int64
	Kind       tumblr.PostType
}

// Result represents the outcome of a download task
type Result struct {
	Task     Task
	Success  bool
	Error    error
	Duration time.Duration
	Bytes    int64
}

// MediaFetcher opens a streaming body for a media URL
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// MediaStorage persists a stream to its final path
type MediaStorage interface {
	SaveStream(r io.Reader, path string, wantSize int64) (int64, error)
}

// TaskLedger records terminal outcomes for claimed content
type TaskLedger interface {
	Record(contentID string, outcome ledger.Outcome, path string) error
}

// Throttler spaces out dispatches across all workers
type Throttler interface {
	Acquire(ctx context.Context) error
}

// WorkerPool manages concurrent download workers. The job queue is
// bounded so producers feel backpressure instead of buffering an
// entire blog's worth of tasks.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Task
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     MediaFetcher
	storage     MediaStorage
	ledger      TaskLedger
	throttle    Throttler
	logger      logger.Logger

	// submitMu serializes Submit against Stop closing the job queue
	submitMu sync.RWMutex
	stopped  bool
}

// NewWorkerPool creates a download worker pool. queueSize bounds the
// job queue; pass 0 to default to twice the worker count.
func NewWorkerPool(
	parent context.Context,
	numWorkers int,
	queueSize int,
	fetcher MediaFetcher,
	storage MediaStorage,
	taskLedger TaskLedger,
	throttle Throttler,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(parent)

	if log == nil {
		log = logger.GetLogger()
	}
	if queueSize <= 0 {
		queueSize = numWorkers * 2
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Task, queueSize),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		storage:     storage,
		ledger:      taskLedger,
		throttle:    throttle,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"queue_size":  cap(wp.jobQueue),
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for workers to drain the remaining
// tasks, then closes the result queue.
func (wp *WorkerPool) Stop() {
	wp.logger.Info("Stopping worker pool...")

	wp.submitMu.Lock()
	if wp.stopped {
		wp.submitMu.Unlock()
		return
	}
	wp.stopped = true
	wp.submitMu.Unlock()

	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Worker pool stopped")
}

// Submit adds a download task to the queue, blocking when the queue is
// full until a worker frees a slot or the pool shuts down. Submitting
// after Stop returns an error.
func (wp *WorkerPool) Submit(task Task) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.stopped {
		return fmt.Errorf("worker pool is shutting down")
	}

	select {
	case wp.jobQueue <- task:
		wp.logger.DebugWithFields("Task submitted to queue", map[string]interface{}{
			"content_id": task.ContentID,
			"blog":       task.Blog,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for task := range wp.jobQueue {
		var result Result
		select {
		case <-wp.ctx.Done():
			// drained after cancellation: fail the claim without
			// counting an attempt against the ceiling
			result = Result{
				Task:  task,
				Error: wp.ctx.Err(),
			}
		default:
			result = wp.processTask(task, id)
		}

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// processTask handles a single download: throttle, fetch, stream to
// disk, record the outcome in the ledger.
func (wp *WorkerPool) processTask(task Task, workerID int) Result {
	start := time.Now()
	result := Result{Task: task}

	wp.logger.DebugWithFields("Worker processing task", map[string]interface{}{
		"worker_id":  workerID,
		"content_id": task.ContentID,
		"blog":       task.Blog,
	})

	if err := wp.throttle.Acquire(wp.ctx); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	body, size, err := wp.fetcher.Fetch(wp.ctx, task.Asset.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		// a cancelled fetch is not a failed attempt
		if wp.ctx.Err() == nil {
			wp.recordFailure(task, result)
		}
		return result
	}

	written, err := wp.storage.SaveStream(body, task.TargetPath, size)
	body.Close()
	result.Bytes = written
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.recordFailure(task, result)
		return result
	}

	if err := wp.ledger.Record(task.ContentID, ledger.OutcomeComplete, task.TargetPath); err != nil {
		wp.logger.ErrorWithFields("Failed to record completed download", map[string]interface{}{
			"worker_id":  workerID,
			"content_id": task.ContentID,
			"error":      err.Error(),
		})
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed task", map[string]interface{}{
		"worker_id":  workerID,
		"content_id": task.ContentID,
		"bytes":      result.Bytes,
		"duration":   result.Duration,
	})

	return result
}

func (wp *WorkerPool) recordFailure(task Task, result Result) {
	if err := wp.ledger.Record(task.ContentID, ledger.OutcomeFailed, ""); err != nil {
		wp.logger.ErrorWithFields("Failed to record failed download", map[string]interface{}{
			"content_id": task.ContentID,
			"error":      err.Error(),
		})
	}
	wp.logger.ErrorWithFields("Worker failed to download media", map[string]interface{}{
		"content_id": task.ContentID,
		"blog":       task.Blog,
		"error":      result.Error.Error(),
		"duration":   result.Duration,
	})
}

// GetQueueSize returns the current number of tasks in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of active workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
