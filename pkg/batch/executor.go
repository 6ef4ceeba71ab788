// Package batch runs pipeline jobs over many files on a fixed worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gk-tools/imconvt/internal/utils"
	"github.com/gk-tools/imconvt/pkg/pipeline"
	"github.com/gk-tools/imconvt/pkg/types"
)

// DefaultConcurrency is the worker count used when Options.Concurrency is unset
const DefaultConcurrency = 4

// ErrStopped is the error of jobs that were never started because the
// batch was stopped or its context was canceled
var ErrStopped = errors.New("batch stopped before job started")

// Status is the outcome of one job
type Status int

const (
	Succeeded Status = iota
	Failed
)

func (s Status) String() string {
	if s == Succeeded {
		return "succeeded"
	}
	return "failed"
}

// Result is the outcome of one job
type Result struct {
	Job    types.JobDescriptor
	Status Status
	// Stage is the pipeline stage that failed, empty for configuration
	// errors and stopped jobs
	Stage    pipeline.Stage
	Err      error
	Width    int
	Height   int
	Bytes    int
	Duration time.Duration
}

// Progress counts finished jobs
type Progress struct {
	Completed int
	Total     int
}

// Fraction returns Completed/Total in [0, 1]; an empty batch is complete
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// String renders "k of n"
func (p Progress) String() string {
	return fmt.Sprintf("%d of %d", p.Completed, p.Total)
}

// Options configures an Executor
type Options struct {
	// Concurrency is the number of workers; DefaultConcurrency when <= 0
	Concurrency int
	// Logger receives one line per failed job; discarded when nil
	Logger *log.Logger
	// OnProgress is called after every finished job, one call at a time,
	// with a non-decreasing Completed count
	OnProgress func(Progress)
}

// Executor runs batches of jobs. An Executor runs one batch at a time.
type Executor struct {
	concurrency int
	logger      *log.Logger
	onProgress  func(Progress)

	mu       sync.Mutex // serializes progress updates and callbacks
	progress atomic.Pointer[Progress]

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	stopped  atomic.Bool
}

// New creates an Executor
func New(opts Options) *Executor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	e := &Executor{
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		onProgress:  opts.OnProgress,
	}
	e.progress.Store(&Progress{})
	return e
}

// Progress returns a snapshot of the current batch's progress
func (e *Executor) Progress() Progress {
	return *e.progress.Load()
}

// Stop prevents any further job from starting. Jobs already running finish.
func (e *Executor) Stop() {
	e.stopped.Store(true)
	e.cancelMu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancelMu.Unlock()
}

// Run executes jobs and returns exactly one Result per job, in job order.
// Jobs that share a destination run one after another in job order, so the
// last of them determines the file's contents.
func (e *Executor) Run(ctx context.Context, jobs []types.JobDescriptor) []Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.cancelMu.Lock()
	e.stopped.Store(false)
	e.cancel = cancel
	e.cancelMu.Unlock()

	e.mu.Lock()
	e.progress.Store(&Progress{Total: len(jobs)})
	e.mu.Unlock()

	results := make([]Result, len(jobs))
	lanes := groupByDestination(jobs)

	queue := make(chan []int, len(lanes))
	for _, lane := range lanes {
		queue <- lane
	}
	close(queue)

	var g errgroup.Group
	for range min(e.concurrency, max(1, len(lanes))) {
		g.Go(func() error {
			for lane := range queue {
				for _, i := range lane {
					if ctx.Err() != nil || e.stopped.Load() {
						results[i] = Result{Job: jobs[i], Status: Failed, Err: ErrStopped}
					} else {
						results[i] = e.runJob(jobs[i])
					}
					e.advance()
				}
			}
			return nil
		})
	}
	g.Wait()

	e.cancelMu.Lock()
	e.cancel = nil
	e.cancelMu.Unlock()

	return results
}

func (e *Executor) advance() {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := *e.progress.Load()
	p.Completed++
	e.progress.Store(&p)
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

// runJob decodes, transforms, encodes and writes one job. Panics are
// reported as a failure of the stage that was running.
func (e *Executor) runJob(job types.JobDescriptor) (res Result) {
	start := time.Now()
	res = Result{Job: job, Status: Failed}
	stage := pipeline.StageDecode

	defer func() {
		if r := recover(); r != nil {
			res.Status = Failed
			res.Stage = stage
			res.Err = fmt.Errorf("panic: %v", r)
			e.logger.Printf("job %s panicked in %s: %v\n%s", job.Source, stage, r, debug.Stack())
		}
		res.Duration = time.Since(start)
	}()

	src, err := pipeline.Load(job.Source)
	if err != nil {
		return e.fail(res, stage, err)
	}

	stage = pipeline.StageResize
	out, err := pipeline.Run(src, job.Params)
	if err != nil {
		return e.fail(res, pipeline.StageOf(err), err)
	}

	stage = pipeline.StageWrite
	if err := utils.WriteFileAtomic(job.Destination, out.Data); err != nil {
		return e.fail(res, stage, err)
	}

	res.Status = Succeeded
	res.Width = out.Image.Width()
	res.Height = out.Image.Height()
	res.Bytes = len(out.Data)
	return res
}

func (e *Executor) fail(res Result, stage pipeline.Stage, err error) Result {
	res.Status = Failed
	res.Stage = stage
	res.Err = err
	if stage == "" {
		e.logger.Printf("job %s rejected: %v", res.Job.Source, err)
	} else {
		e.logger.Printf("job %s failed in %s: %v", res.Job.Source, stage, err)
	}
	return res
}

// groupByDestination returns job indices grouped into lanes of jobs that
// write the same file, ordered by each lane's first job
func groupByDestination(jobs []types.JobDescriptor) [][]int {
	var lanes [][]int
	byDest := make(map[string]int, len(jobs))
	for i, job := range jobs {
		key := filepath.Clean(job.Destination)
		if l, ok := byDest[key]; ok {
			lanes[l] = append(lanes[l], i)
			continue
		}
		byDest[key] = len(lanes)
		lanes = append(lanes, []int{i})
	}
	return lanes
}

// Summary counts results by status
func Summary(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Status == Succeeded {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
