// Package batch runs independent units of work with bounded concurrency
// while keeping the written output in submission order.
//
// Tasks are processed in consecutive batches of at most the job limit. Every
// task in a batch gets its own goroutine and writes only its own output
// slot; after the batch joins, slots are flushed in index order. Completion
// order drives progress reporting, index order drives content.
package batch

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"relnotes/pkg/errors"
	"relnotes/pkg/observability"
)

// Task is one unit of work producing a block of output text.
type Task struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// Progress describes one completed unit. Delivered in completion order,
// which is not the order outputs appear in.
type Progress struct {
	Index int
	Name  string
	Done  int
	Total int
	Err   error
}

// Options configures a scheduler run.
type Options struct {
	// Limit caps how many tasks run concurrently within a batch.
	// Values below 1 fall back to DefaultLimit().
	Limit int

	// Delay is the pause between consecutive batches, giving upstream
	// APIs room to breathe. Zero means no pause.
	Delay time.Duration

	// Separator is written between consecutive non-empty outputs.
	Separator string

	// OnProgress, when set, is called once per completed unit.
	OnProgress func(Progress)

	// Logger receives per-unit failure logs. Nil means log.Default().
	Logger *log.Logger
}

// Result summarizes a scheduler run.
type Result struct {
	Completed int
	Failed    int
	Canceled  bool
}

const maxDefaultLimit = 16

// DefaultLimit is the job limit used when none is configured: one job per
// CPU, capped so large machines do not hammer upstream APIs, and halved when
// the machine is already under load.
func DefaultLimit() int {
	cpus := runtime.NumCPU()
	limit := cpus
	if limit > maxDefaultLimit {
		limit = maxDefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	return adjustForLoad(limit, cpus)
}

// Run processes tasks in batches of at most opts.Limit, writing each task's
// output to w in submission order. A unit that fails or panics contributes a
// placeholder line and never disturbs its neighbors.
//
// On cancellation, everything already flushed stays written, in-flight units
// are joined, and the result reports Canceled.
func Run(ctx context.Context, w io.Writer, tasks []Task, opts Options) (*Result, error) {
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	res := &Result{}
	total := len(tasks)
	done := 0
	wroteAny := false

	for start := 0; start < total; start += opts.Limit {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}
		end := min(start+opts.Limit, total)
		units := tasks[start:end]
		observability.Batch().OnBatchStart(ctx, start/opts.Limit, len(units))

		// Each goroutine owns exactly one slot; no locking needed for
		// the buffers themselves.
		outputs := make([]string, len(units))
		errs := make([]error, len(units))

		var mu sync.Mutex
		var wg sync.WaitGroup
		for i, task := range units {
			wg.Add(1)
			go func(i int, task Task) {
				defer wg.Done()
				began := time.Now()
				out, err := runUnit(ctx, task)
				outputs[i] = out
				errs[i] = err

				// Progress is delivered under the lock so Done counts
				// arrive strictly increasing.
				mu.Lock()
				done++
				p := Progress{Index: start + i, Name: task.Name, Done: done, Total: total, Err: err}
				if opts.OnProgress != nil {
					opts.OnProgress(p)
				}
				mu.Unlock()

				observability.Batch().OnUnitDone(ctx, p.Index, time.Since(began), err)
			}(i, task)
		}
		wg.Wait()

		for i := range units {
			if errs[i] != nil {
				res.Failed++
				logger.Warn("unit failed", "task", units[i].Name, "err", errs[i])
				outputs[i] = failurePlaceholder(units[i].Name)
			} else {
				res.Completed++
			}
			if outputs[i] == "" {
				continue
			}
			if wroteAny && opts.Separator != "" {
				if _, err := io.WriteString(w, opts.Separator); err != nil {
					return res, errors.Wrap(errors.ErrCodeInternal, err, "write output")
				}
			}
			if _, err := io.WriteString(w, outputs[i]); err != nil {
				return res, errors.Wrap(errors.ErrCodeInternal, err, "write output")
			}
			wroteAny = true
		}

		// Rate-limit pause after every batch, the final one included, so a
		// run of ceil(total/limit) batches pays exactly that many delays.
		if opts.Delay > 0 {
			if !sleepCtx(ctx, opts.Delay) {
				res.Canceled = true
				break
			}
		}
	}

	if res.Canceled {
		return res, errors.Wrap(errors.ErrCodeTaskFailed, ctx.Err(), "run canceled")
	}
	return res, nil
}

// runUnit executes one task, converting panics into task errors so a single
// bad unit cannot take down the whole run.
func runUnit(ctx context.Context, task Task) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeTaskFailed, "panic in %s: %v", task.Name, r)
		}
	}()
	return task.Run(ctx)
}

func failurePlaceholder(name string) string {
	return fmt.Sprintf("failed to process %s\n", name)
}

// sleepCtx waits for d or until the context is done. Reports whether the
// full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
