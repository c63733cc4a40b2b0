package threadpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorMode controls how a TaskGroup handles errors returned by its
// member functions.
type ErrorMode int

const (
	// CollectAll runs every submitted function to completion and returns
	// an *AggregateError of the errors observed, up to the group's error
	// buffer capacity; errors beyond that capacity are dropped.
	CollectAll ErrorMode = iota
	// FailFast cancels the group's context on the first error and
	// returns that error from Wait.
	FailFast
	// IgnoreErrors discards every error observed by member functions.
	IgnoreErrors
)

// GroupConfig configures a TaskGroup.
type GroupConfig struct {
	errorMode   ErrorMode
	errorBuffer int
}

// GroupOption configures a GroupConfig.
type GroupOption func(*GroupConfig)

// DefaultGroupConfig returns a GroupConfig with CollectAll error handling
// and a small error buffer.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{errorMode: CollectAll, errorBuffer: 16}
}

// WithErrorMode sets how a TaskGroup handles member errors.
func WithErrorMode(mode ErrorMode) GroupOption {
	return func(c *GroupConfig) { c.errorMode = mode }
}

// WithErrorBuffer sets the group's internal error channel capacity.
func WithErrorBuffer(n int) GroupOption {
	return func(c *GroupConfig) {
		if n < 0 {
			n = 0
		}
		c.errorBuffer = n
	}
}

// GroupStats reports how many functions a TaskGroup has in flight,
// finished, and failed.
type GroupStats struct {
	Running   int64
	Completed int64
	Failed    int64
}

// AggregateError combines every error a CollectAll TaskGroup observed.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (a *AggregateError) Error() string {
	if len(a.Errors) == 0 {
		return "no errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s) occurred:", len(a.Errors))
	for i, err := range a.Errors {
		fmt.Fprintf(&b, "\n  [%d] %v", i+1, err)
	}
	return b.String()
}

// Unwrap makes AggregateError compatible with errors.Is/errors.As.
func (a *AggregateError) Unwrap() []error {
	return a.Errors
}

// Is reports whether any wrapped error matches target.
func (a *AggregateError) Is(target error) bool {
	for _, err := range a.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As finds the first wrapped error assignable to target.
func (a *AggregateError) As(target any) bool {
	for _, err := range a.Errors {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

// TaskGroup runs a set of related functions through a ThreadPool with
// structured concurrency: Go submits a function, Wait blocks until every
// submitted function has finished and reports their errors according to
// the group's ErrorMode, and Stop cancels the context passed to every
// member function.
//
// Unlike calling ThreadPool.Submit directly, TaskGroup functions receive a
// context that is cancelled either explicitly via Stop or automatically
// on the first error under FailFast, and every function's panic is
// converted to an error rather than only being handled by the pool's own
// panic handler.
type TaskGroup struct {
	pool   *ThreadPool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	cfg    GroupConfig

	errs      chan error
	errorOnce sync.Once
	closeOnce sync.Once

	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewTaskGroup creates a TaskGroup that submits its member functions to
// pool, with a background context.
func NewTaskGroup(pool *ThreadPool, opts ...GroupOption) *TaskGroup {
	return NewTaskGroupWithContext(pool, context.Background(), opts...)
}

// NewTaskGroupWithContext creates a TaskGroup whose member functions
// receive a context derived from ctx, cancelled on Stop or, under
// FailFast, on first error.
func NewTaskGroupWithContext(pool *ThreadPool, ctx context.Context, opts ...GroupOption) *TaskGroup {
	cfg := DefaultGroupConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	groupCtx, cancel := context.WithCancel(ctx)
	return &TaskGroup{
		pool:   pool,
		ctx:    groupCtx,
		cancel: cancel,
		cfg:    cfg,
		errs:   make(chan error, cfg.errorBuffer),
	}
}

// NewTaskGroupWithTimeout creates a TaskGroup whose context expires after
// timeout.
func NewTaskGroupWithTimeout(pool *ThreadPool, timeout time.Duration, opts ...GroupOption) *TaskGroup {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	g := NewTaskGroupWithContext(pool, ctx, opts...)
	g.cancel = cancel
	return g
}

// NewTaskGroupWithDeadline creates a TaskGroup whose context expires at
// deadline.
func NewTaskGroupWithDeadline(pool *ThreadPool, deadline time.Time, opts ...GroupOption) *TaskGroup {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	g := NewTaskGroupWithContext(pool, ctx, opts...)
	g.cancel = cancel
	return g
}

// Go submits fn to the group's pool. It returns an error immediately only
// if the underlying pool rejects the submission (e.g. it is closed); fn's
// own return value and panics are collected and surfaced from Wait.
func (g *TaskGroup) Go(fn func(context.Context) error) error {
	g.running.Add(1)
	g.wg.Add(1)

	task := func() {
		defer func() {
			g.running.Add(-1)
			g.completed.Add(1)
			g.wg.Done()
		}()
		defer func() {
			if r := recover(); r != nil {
				g.failed.Add(1)
				g.handleError(&PanicError{Value: r, Stack: string(debug.Stack())})
			}
		}()
		if err := fn(g.ctx); err != nil {
			g.failed.Add(1)
			g.handleError(err)
		}
	}

	if err := g.pool.Submit(task); err != nil {
		g.running.Add(-1)
		g.wg.Done()
		return err
	}
	return nil
}

// GoSafe submits fn to the group's pool for a fire-and-forget run: its
// return value is always treated as success, but a panic still counts as
// a failure and is still collected.
func (g *TaskGroup) GoSafe(fn func(context.Context)) error {
	return g.Go(func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}

// Wait blocks until every submitted function has finished, then returns
// the aggregate result according to the group's ErrorMode: nil under
// IgnoreErrors, the first observed error under FailFast, or an
// *AggregateError of the observed errors under CollectAll (at most the
// error buffer capacity; further errors are dropped).
func (g *TaskGroup) Wait() error {
	g.wg.Wait()
	g.Stop()

	g.closeOnce.Do(func() { close(g.errs) })

	if g.cfg.errorMode == IgnoreErrors {
		for range g.errs {
		}
		return nil
	}

	var collected []error
	for err := range g.errs {
		collected = append(collected, err)
		if g.cfg.errorMode == FailFast {
			return err
		}
	}
	if len(collected) > 0 && g.cfg.errorMode == CollectAll {
		return &AggregateError{Errors: collected}
	}
	return nil
}

// Stop cancels the context passed to every member function.
func (g *TaskGroup) Stop() {
	g.cancel()
}

// Stats returns current counts of running, completed, and failed member
// functions.
func (g *TaskGroup) Stats() GroupStats {
	return GroupStats{
		Running:   g.running.Load(),
		Completed: g.completed.Load(),
		Failed:    g.failed.Load(),
	}
}

func (g *TaskGroup) handleError(err error) {
	switch g.cfg.errorMode {
	case IgnoreErrors:
		return
	case FailFast:
		g.errorOnce.Do(func() {
			select {
			case g.errs <- err:
			default:
			}
			g.cancel()
		})
	case CollectAll:
		select {
		case g.errs <- err:
		default:
		}
	}
}
