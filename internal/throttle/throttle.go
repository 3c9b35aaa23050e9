// Package throttle serializes outbound upstream calls. The spreadsheet
// service enforces an undocumented rate limit, so every fetch from every
// accessor funnels through one Throttler: at most one task in flight, task
// starts at least the configured interval apart, strict FIFO order.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/linqiu/folio/internal/common"
)

// DefaultInterval is the minimum spacing between task starts.
const DefaultInterval = 600 * time.Millisecond

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("throttle: closed")

// Task is one outbound call. Its outcome is delivered only to its submitter;
// a failing task does not disturb the rest of the queue.
type Task func(ctx context.Context) (any, error)

type outcome struct {
	value any
	err   error
}

type pending struct {
	ctx    context.Context
	task   Task
	result chan outcome
}

// Throttler owns its queue and pacing state; construct one per upstream
// fan-in point and inject it, there is no package-level instance.
type Throttler struct {
	logger  *common.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*pending
	closed bool

	wg sync.WaitGroup
}

// New creates a Throttler enforcing the given minimum inter-start interval
// (DefaultInterval if interval <= 0) and starts its worker.
func New(logger *common.Logger, interval time.Duration) *Throttler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Throttler{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
	t.cond = sync.NewCond(&t.mu)

	t.wg.Add(1)
	go t.run()

	return t
}

// Do submits a task and blocks until its outcome is delivered. Submission
// order is execution order. A ctx that expires while the task is still
// queued aborts the wait with ctx.Err(); once a task has started it runs to
// completion.
func (t *Throttler) Do(ctx context.Context, task Task) (any, error) {
	p := &pending{
		ctx:    ctx,
		task:   task,
		result: make(chan outcome, 1),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.queue = append(t.queue, p)
	depth := len(t.queue)
	t.cond.Signal()
	t.mu.Unlock()

	if depth > 1 {
		t.logger.Debug().Int("queue_depth", depth).Msg("Throttled request queued")
	}

	out := <-p.result
	return out.value, out.err
}

// Do submits a typed task through the throttler.
func Do[T any](t *Throttler, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := t.Do(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := value.(T)
	if !ok {
		var zero T
		return zero, errors.New("throttle: unexpected task result type")
	}
	return v, nil
}

// run is the single worker: it guarantees the one-in-flight cap and the
// inter-start spacing.
func (t *Throttler) run() {
	defer t.wg.Done()

	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.cond.Wait()
		}
		if t.closed && len(t.queue) == 0 {
			t.mu.Unlock()
			return
		}
		p := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()

		// Give up on tasks whose caller already went away while queued.
		if err := p.ctx.Err(); err != nil {
			p.result <- outcome{err: err}
			continue
		}

		if err := t.limiter.Wait(p.ctx); err != nil {
			p.result <- outcome{err: err}
			continue
		}

		value, err := p.task(p.ctx)
		p.result <- outcome{value: value, err: err}
	}
}

// Close rejects new submissions, lets queued tasks drain, and waits for the
// worker to stop.
func (t *Throttler) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.cond.Signal()
	t.mu.Unlock()

	t.wg.Wait()
}
