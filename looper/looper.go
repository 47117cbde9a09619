// Package looper implements the serial execution contexts the bridge core
// runs on. A Looper is a single logical thread of control with an ordered
// FIFO work queue; work items are opaque closures receiving a context that
// identifies the Looper they run on.
//
// Loopers never share mutable state: the only sanctioned cross-context
// interaction is posting work with Post or synchronously running it with
// RunSync. Correctness guards use AssertCurrent, which fails fast when an
// operation touches context-owned state from the wrong context.
package looper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
)

// ErrClosed is returned when work is posted to a Looper that has been
// closed. The work is dropped, never executed later.
var ErrClosed = errors.New("execution context closed")

type ctxKey struct{}

// Work is a unit of work executed on a Looper. The context carries the
// Looper identity for AssertCurrent / IsCurrent checks.
type Work func(ctx context.Context)

// Looper is a dedicated serial FIFO execution context.
type Looper struct {
	name     string
	in       chan Work
	dispatch chan Work
	quit     chan struct{}
	done     chan struct{}
	closed   atomic.Bool
	ctx      context.Context
	logger   *slog.Logger
}

// New creates and starts a Looper. The returned Looper runs until Close.
func New(name string, logger *slog.Logger) *Looper {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Looper{
		name:     name,
		in:       make(chan Work),
		dispatch: make(chan Work),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
	l.ctx = context.WithValue(context.Background(), ctxKey{}, l)
	go l.pump()
	go l.worker()
	return l
}

// Name returns the context name used in diagnostics.
func (l *Looper) Name() string { return l.name }

// pump keeps an unbounded FIFO between Post and the worker so that Post
// never blocks on a busy work item.
func (l *Looper) pump() {
	defer close(l.dispatch)
	var pending []Work
	for {
		var out chan<- Work
		var next Work
		if len(pending) > 0 {
			out = l.dispatch
			next = pending[0]
		}
		select {
		case <-l.quit:
			if n := len(pending); n > 0 {
				l.logger.Debug("dropping queued work on closed context",
					"context", l.name, "dropped", n)
			}
			return
		case w := <-l.in:
			pending = append(pending, w)
		case out <- next:
			pending[0] = nil
			pending = pending[1:]
		}
	}
}

func (l *Looper) worker() {
	defer close(l.done)
	for w := range l.dispatch {
		w(l.ctx)
	}
}

// Post enqueues work and returns immediately. Work posted to the same
// Looper executes strictly in submission order. After Close the work is
// dropped with a diagnostic and ErrClosed is returned.
func (l *Looper) Post(w Work) error {
	if w == nil {
		return derrors.NewMisuse("looper.Post", "nil work on %q context", l.name)
	}
	if l.closed.Load() {
		l.logger.Debug("dropping work posted to closed context", "context", l.name)
		return ErrClosed
	}
	select {
	case l.in <- w:
		return nil
	case <-l.quit:
		l.logger.Debug("dropping work posted to closed context", "context", l.name)
		return ErrClosed
	}
}

// RunSync enqueues fn and blocks the caller until it completes, returning
// the work's error. When the caller is already on this Looper the work runs
// inline to avoid self-deadlock. ctx is the caller's context; it is used
// only for the current-context check, not for cancellation: once enqueued,
// a hung target context stalls the caller indefinitely.
func (l *Looper) RunSync(ctx context.Context, fn func(ctx context.Context) error) error {
	if FromContext(ctx) == l {
		return fn(ctx)
	}
	res := make(chan error, 1)
	if err := l.Post(func(c context.Context) { res <- fn(c) }); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-l.done:
		// The work may have completed right as the worker exited.
		select {
		case err := <-res:
			return err
		default:
			return ErrClosed
		}
	}
}

// IsCurrent reports whether ctx identifies this Looper.
func (l *Looper) IsCurrent(ctx context.Context) bool {
	return FromContext(ctx) == l
}

// AssertCurrent panics when ctx does not identify this Looper. It is a
// correctness guard for operations that touch context-owned state, not a
// flow-control mechanism.
func (l *Looper) AssertCurrent(ctx context.Context) {
	if cur := FromContext(ctx); cur != l {
		name := "unmanaged"
		if cur != nil {
			name = cur.name
		}
		panic(derrors.NewMisuse("looper.AssertCurrent",
			"operation requires the %q context, running on %q", l.name, name))
	}
}

// Close stops the Looper. The in-flight work item finishes; queued work is
// dropped with a diagnostic. Close is idempotent and waits for the worker
// to exit unless called from the Looper itself (pass the work's context so
// the self-close case can be detected).
func (l *Looper) Close(ctx context.Context) {
	if l.closed.CompareAndSwap(false, true) {
		close(l.quit)
	}
	if FromContext(ctx) == l {
		return
	}
	<-l.done
}

// FromContext returns the Looper identified by ctx, or nil when ctx does
// not originate from a Looper work item.
func FromContext(ctx context.Context) *Looper {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(ctxKey{}).(*Looper)
	return l
}
