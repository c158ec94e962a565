// Package pipeline wires the breadth-first scheduler, the predicate engine
// and an output sink into three independently progressing stages connected
// by bounded channels.
//
// Stage layout: listing -> filtering -> output. Each inter-stage channel has
// a bounded capacity, so a slow sink (spawning processes, blocked writes)
// backpressures filtering, which backpressures listing, and memory stays
// bounded no matter how wide the tree is. Filtering only drops entries, so
// output order is the scheduler's breadth-first order minus non-matches.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/harrison/bfind/internal/entry"
	"github.com/harrison/bfind/internal/logger"
	"github.com/harrison/bfind/internal/predicate"
	"github.com/harrison/bfind/internal/walker"
)

// Sink consumes matched entries; invoked at most once per match, in order.
type Sink interface {
	Emit(e *entry.Entry) error
}

// Options configures a pipeline run.
type Options struct {
	// BufferSize is the capacity of each inter-stage channel. Zero selects
	// the default of 256.
	BufferSize int

	// MaxResults stops the pipeline after this many sink invocations.
	// Zero means unlimited.
	MaxResults int

	// RunID identifies the run in logs and in the environment of exec'd
	// commands. Empty generates a fresh UUID.
	RunID string

	// Log receives diagnostics and warnings. Nil discards them.
	Log *logger.Console
}

// Result summarizes a completed (or cancelled) run. Entries already emitted
// are never retracted: Matches counts sink invocations that happened.
type Result struct {
	RunID    string
	Matches  int
	Warnings []error
}

// Pipeline coordinates one traversal pass. It runs once.
type Pipeline struct {
	sched *walker.Scheduler
	pred  *predicate.Predicate
	sink  Sink
	opts  Options

	mu       sync.Mutex
	warnings []error
}

// New builds a pipeline over a scheduler, a compiled predicate and a sink.
func New(sched *walker.Scheduler, pred *predicate.Predicate, sink Sink, opts Options) *Pipeline {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Pipeline{sched: sched, pred: pred, sink: sink, opts: opts}
}

// Warn records a non-fatal error and logs it. The scheduler's warn callback
// and the output stage both funnel through here, so no warning is dropped.
func (p *Pipeline) Warn(err error) {
	p.mu.Lock()
	p.warnings = append(p.warnings, err)
	p.mu.Unlock()
	if p.opts.Log != nil {
		p.opts.Log.Warnf("%v", err)
	}
}

// Run executes the pipeline until the frontier is exhausted, the match limit
// is reached, or ctx is cancelled. The returned error is fatal (frontier
// spill failure or external cancellation); per-directory and per-match
// failures are collected in Result.Warnings instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.opts.Log != nil {
		p.opts.Log.Debugf("run %s: starting traversal", p.opts.RunID)
	}

	entries := make(chan *entry.Entry, p.opts.BufferSize)
	matches := make(chan *entry.Entry, p.opts.BufferSize)

	var wg sync.WaitGroup
	var schedErr error

	// Listing stage: owns the frontier queue, closes entries when drained.
	wg.Add(1)
	go func() {
		defer wg.Done()
		schedErr = p.sched.Run(ctx, entries)
	}()

	// Filtering stage: evaluates the predicate, resolving metadata
	// synchronously so the output stage never races on the cache.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(matches)
		for e := range entries {
			if !p.pred.Eval(e) {
				continue
			}
			select {
			case matches <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Output stage runs on the calling goroutine.
	limitHit := false
	result := &Result{RunID: p.opts.RunID}
	for e := range matches {
		if err := p.sink.Emit(e); err != nil {
			p.Warn(err)
			continue
		}
		result.Matches++
		if p.opts.MaxResults > 0 && result.Matches >= p.opts.MaxResults {
			limitHit = true
			cancel()
			break
		}
	}

	// Drain anything buffered after an early stop so upstream goroutines
	// blocked on sends observe cancellation and exit.
	for range matches {
	}
	wg.Wait()

	result.Warnings = p.snapshotWarnings()

	if schedErr != nil {
		// Cancellation we triggered ourselves on the match limit is a normal
		// completion, not a failure.
		if errors.Is(schedErr, context.Canceled) && limitHit {
			schedErr = nil
		}
	}
	if p.opts.Log != nil {
		p.opts.Log.Debugf("run %s: %d matched, %d warnings", p.opts.RunID, result.Matches, len(result.Warnings))
	}
	return result, schedErr
}

func (p *Pipeline) snapshotWarnings() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.warnings...)
}
