// engine/internal/bulk/bulk.go
//
// Bulk job orchestration: one job owns 1..50 product URLs, runs the
// conversion pipeline for each under a bounded worker pool, and
// merges per-item lifecycle events into a single ordered stream.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"relist-engine/internal/domain"
	"relist-engine/internal/events"
	"relist-engine/internal/pipeline"
)

// ErrInvalidJobSize rejects a submit outside 1..50 URLs. Checked
// before any network activity.
var ErrInvalidJobSize = errors.New("invalid job size")

// ErrUnknownJob means the job id matches nothing this engine owns.
var ErrUnknownJob = errors.New("unknown job")

// Per-item event budget when sizing a job's stream buffer: started,
// five steps, completed, plus slack for progress and heartbeats.
const eventsPerItem = 12

// Options apply to every item in a job.
type Options struct {
	Publish   bool
	SellPrice float64
}

// Job is the engine's view of one submitted bulk conversion.
type Job struct {
	ID        string
	URLs      []string
	Stream    *events.Stream
	CreatedAt time.Time

	cancel context.CancelFunc

	mu        sync.Mutex
	completed int
	failed    int
	results   []*domain.ConversionResult
	done      bool
	cancelled bool
}

// Progress is a point-in-time aggregate of a job.
type Progress struct {
	JobID       string                     `json:"job_id"`
	Total       int                        `json:"total"`
	Completed   int                        `json:"completed"`
	Failed      int                        `json:"failed"`
	Pending     int                        `json:"pending"`
	ProgressPct float64                    `json:"progress_pct"`
	Done        bool                       `json:"done"`
	Cancelled   bool                       `json:"cancelled"`
	Results     []*domain.ConversionResult `json:"results"`
}

// Runner drives one URL to a terminal result. Satisfied by
// pipeline.Executor.
type Runner interface {
	Run(ctx context.Context, rawURL string, opts pipeline.Options, onStep pipeline.StepFunc) *domain.ConversionResult
}

// Engine runs bulk jobs. One engine serves the whole process; jobs
// are independent of each other.
type Engine struct {
	executor    Runner
	hub         *events.Hub
	maxURLs     int
	concurrency int
	heartbeat   time.Duration
	retention   time.Duration

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewEngine builds a bulk engine. retention is how long a finished
// job stays queryable under /jobs/{id} before it is evicted from the
// registry; zero or negative selects the default.
func NewEngine(executor Runner, hub *events.Hub, maxURLs, concurrency int, heartbeat, retention time.Duration) *Engine {
	if retention <= 0 {
		retention = 15 * time.Minute
	}
	return &Engine{
		executor:    executor,
		hub:         hub,
		maxURLs:     maxURLs,
		concurrency: concurrency,
		heartbeat:   heartbeat,
		retention:   retention,
		jobs:        make(map[string]*Job),
	}
}

// Submit validates the URL list, registers a job, and starts its
// workers. The returned job's Stream is live immediately; the caller
// owns draining it.
func (e *Engine) Submit(ctx context.Context, urls []string, opts Options) (*Job, error) {
	if len(urls) < 1 || len(urls) > e.maxURLs {
		return nil, fmt.Errorf("%w: %d urls (allowed 1..%d)", ErrInvalidJobSize, len(urls), e.maxURLs)
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := &Job{
		ID:        uuid.NewString(),
		URLs:      urls,
		Stream:    events.NewStream(len(urls)*eventsPerItem + 8),
		CreatedAt: time.Now().UTC(),
		cancel:    cancel,
		results:   make([]*domain.ConversionResult, len(urls)),
	}

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()

	log.Printf("[bulk] job %s: %d urls, concurrency %d", job.ID, len(urls), e.concurrency)
	go e.run(jobCtx, job, opts)
	return job, nil
}

// Cancel marks a job cancelled. In-flight items finish their current
// stage and stop; unstarted items fail with a cancelled error. The
// job still emits its job_completed event.
func (e *Engine) Cancel(jobID string) error {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	job.mu.Lock()
	already := job.done || job.cancelled
	job.cancelled = true
	job.mu.Unlock()
	if already {
		return nil
	}
	log.Printf("[bulk] job %s: cancelled", jobID)
	job.cancel()
	return nil
}

// Progress reports a job's current aggregate state.
func (e *Engine) Progress(jobID string) (Progress, error) {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progressLocked(), nil
}

func (j *Job) progressLocked() Progress {
	total := len(j.URLs)
	results := make([]*domain.ConversionResult, 0, total)
	for _, r := range j.results {
		if r != nil {
			results = append(results, r)
		}
	}
	return Progress{
		JobID:       j.ID,
		Total:       total,
		Completed:   j.completed,
		Failed:      j.failed,
		Pending:     total - j.completed - j.failed,
		ProgressPct: progressPct(j.completed+j.failed, total),
		Done:        j.done,
		Cancelled:   j.cancelled,
		Results:     results,
	}
}

func progressPct(terminal, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(terminal) * 100 / float64(total)
}

// emit serializes stream publishes under the job lock so an item's
// terminal event and its job_progress are always adjacent.
func (j *Job) emit(e events.Event) {
	j.mu.Lock()
	j.Stream.Publish(e)
	j.mu.Unlock()
}

// run is the job coordinator. It owns the worker pool and the
// heartbeat ticker, and is the only closer of the job stream.
func (e *Engine) run(ctx context.Context, job *Job, opts Options) {
	total := len(job.URLs)

	job.emit(events.Make(job.ID, events.TypeJobStarted, events.JobStarted{JobID: job.ID, Total: total}))
	e.hub.Publish(events.Make(job.ID, events.TypeJobStarted, events.JobStarted{JobID: job.ID, Total: total}))

	// Heartbeats keep the stream alive through idle stretches. The
	// ticker goroutine is a producer, so the coordinator waits for it
	// before closing the stream.
	hbStop := make(chan struct{})
	var hbDone sync.WaitGroup
	hbDone.Add(1)
	go func() {
		defer hbDone.Done()
		t := time.NewTicker(e.heartbeat)
		defer t.Stop()
		for {
			select {
			case <-hbStop:
				return
			case <-t.C:
				job.emit(events.Make(job.ID, events.TypeHeartbeat, nil))
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, u := range job.URLs {
		index, url := i, u
		g.Go(func() error {
			e.runItem(ctx, job, index, url, opts)
			return nil
		})
	}
	_ = g.Wait()

	close(hbStop)
	hbDone.Wait()

	job.mu.Lock()
	job.done = true
	completed, failed := job.completed, job.failed
	job.mu.Unlock()

	done := events.Make(job.ID, events.TypeJobCompleted, events.JobCompleted{Completed: completed, Failed: failed})
	job.emit(done)
	e.hub.Publish(done)
	job.Stream.Close()
	log.Printf("[bulk] job %s: done, completed=%d failed=%d", job.ID, completed, failed)

	// A finished job holds its full results (products, drafts, HTML)
	// until evicted; without this the registry grows for the process
	// lifetime. Progress stays queryable for the retention window.
	time.AfterFunc(e.retention, func() {
		e.mu.Lock()
		delete(e.jobs, job.ID)
		e.mu.Unlock()
		log.Printf("[bulk] job %s: evicted after retention", job.ID)
	})
}

// runItem drives one URL and records its terminal state exactly once.
// The item_completed event and the following job_progress are emitted
// under the job lock so no event from another item lands between them.
func (e *Engine) runItem(ctx context.Context, job *Job, index int, url string, opts Options) {
	// A job cancelled before this item started fails it without
	// touching the pipeline.
	if ctx.Err() != nil {
		now := time.Now().UTC()
		res := &domain.ConversionResult{
			URL:         url,
			Status:      domain.StatusFailed,
			Step:        domain.StepFailed,
			Error:       pipeline.ErrCancelled.Error(),
			StartedAt:   now,
			CompletedAt: now,
		}
		e.finishItem(job, index, url, res)
		return
	}

	job.emit(events.Make(job.ID, events.TypeItemStarted, events.ItemStarted{Index: index, URL: url}))

	res := e.executor.Run(ctx, url, pipeline.Options{Publish: opts.Publish, SellPrice: opts.SellPrice}, func(s domain.Step) {
		job.emit(events.Make(job.ID, events.TypeItemStep, events.ItemStep{Index: index, Step: string(s)}))
	})

	e.finishItem(job, index, url, res)
}

func (e *Engine) finishItem(job *Job, index int, url string, res *domain.ConversionResult) {
	job.mu.Lock()
	defer job.mu.Unlock()

	job.results[index] = res
	if res.Successful() {
		job.completed++
	} else {
		job.failed++
	}

	item := events.ItemCompleted{Index: index, URL: url, Success: res.Successful()}
	if res.Successful() {
		item.Result = res
	} else {
		item.Error = res.Error
	}
	job.Stream.Publish(events.Make(job.ID, events.TypeItemCompleted, item))

	total := len(job.URLs)
	terminal := job.completed + job.failed
	job.Stream.Publish(events.Make(job.ID, events.TypeJobProgress, events.JobProgress{
		Completed:   job.completed,
		Failed:      job.failed,
		Pending:     total - terminal,
		ProgressPct: progressPct(terminal, total),
	}))
}
