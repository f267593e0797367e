package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("worker pool is closed")

type StartOptions[J any] struct {
	Ctx    context.Context
	Sem    chan struct{}
	Jobs   <-chan J
	Handle func(context.Context, J)
	// Done is called once the loop exits.
	Done func()
	// IdleTimeout, with Idle set, asks Idle after that long without a job;
	// the loop exits when Idle returns true.
	IdleTimeout time.Duration
	Idle        func() bool
}

// Start runs one FIFO loop over Jobs. Each job holds a slot of Sem while it
// is handled.
func Start[J any](opts StartOptions[J]) {
	go func() {
		if opts.Done != nil {
			defer opts.Done()
		}
		var idle <-chan time.Time
		var timer *time.Timer
		if opts.IdleTimeout > 0 && opts.Idle != nil {
			timer = time.NewTimer(opts.IdleTimeout)
			defer timer.Stop()
			idle = timer.C
		}
		for {
			select {
			case <-opts.Ctx.Done():
				return
			case <-idle:
				if opts.Idle() {
					return
				}
				timer.Reset(opts.IdleTimeout)
			case job, ok := <-opts.Jobs:
				if !ok {
					return
				}
				select {
				case opts.Sem <- struct{}{}:
				case <-opts.Ctx.Done():
					return
				}
				func() {
					defer func() { <-opts.Sem }()
					opts.Handle(opts.Ctx, job)
				}()
				if timer != nil {
					timer.Reset(opts.IdleTimeout)
				}
			}
		}
	}()
}

func Enqueue[J any](ctx, workersCtx context.Context, jobs chan<- J, job J) error {
	if ctx == nil {
		ctx = workersCtx
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-workersCtx.Done():
		return workersCtx.Err()
	case jobs <- job:
		return nil
	}
}

const defaultIdleTimeout = 10 * time.Minute

type PoolOptions[K comparable, J any] struct {
	// MaxConcurrency bounds jobs handled at once across all keys.
	MaxConcurrency int
	// QueueSize is the per-key buffer.
	QueueSize int
	// IdleTimeout stops a key's worker after that long without jobs. Zero
	// means ten minutes; negative keeps workers until Close.
	IdleTimeout time.Duration
	Handle      func(ctx context.Context, key K, job J)
	Logger      *slog.Logger
}

// Pool keeps one FIFO worker per key, so jobs of a key never overlap, while
// a shared semaphore limits the total. Idle workers exit and are started
// again by the next job of their key.
type Pool[K comparable, J any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	size   int
	idle   time.Duration
	handle func(context.Context, K, J)
	logger *slog.Logger

	mu     sync.Mutex
	queues map[K]*queue[J]
	closed bool
	wg     sync.WaitGroup
}

// queue is a key's channel plus the jobs submitted to it and not yet
// handled. A worker may only retire while pending is zero.
type queue[J any] struct {
	jobs    chan J
	pending int
}

func NewPool[K comparable, J any](ctx context.Context, opts PoolOptions[K, J]) *Pool[K, J] {
	if ctx == nil {
		ctx = context.Background()
	}
	maxConc := opts.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 3
	}
	size := opts.QueueSize
	if size <= 0 {
		size = 16
	}
	idle := opts.IdleTimeout
	if idle == 0 {
		idle = defaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool[K, J]{
		ctx:    poolCtx,
		cancel: cancel,
		sem:    make(chan struct{}, maxConc),
		size:   size,
		idle:   idle,
		handle: opts.Handle,
		logger: logger,
		queues: make(map[K]*queue[J]),
	}
}

// Submit queues job behind earlier jobs of the same key. It blocks while the
// key's queue is full, until ctx or the pool is done.
func (p *Pool[K, J]) Submit(ctx context.Context, key K, job J) error {
	q, err := p.acquire(key)
	if err != nil {
		return err
	}
	if err := Enqueue(ctx, p.ctx, q.jobs, job); err != nil {
		p.release(q)
		return err
	}
	return nil
}

// Workers reports how many keys currently have a running worker.
func (p *Pool[K, J]) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues)
}

func (p *Pool[K, J]) acquire(key K) (*queue[J], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	q, ok := p.queues[key]
	if !ok {
		q = &queue[J]{jobs: make(chan J, p.size)}
		p.queues[key] = q
		p.startLocked(key, q)
	}
	q.pending++
	return q, nil
}

func (p *Pool[K, J]) release(q *queue[J]) {
	p.mu.Lock()
	q.pending--
	p.mu.Unlock()
}

func (p *Pool[K, J]) startLocked(key K, q *queue[J]) {
	p.wg.Add(1)
	opts := StartOptions[J]{
		Ctx:  p.ctx,
		Sem:  p.sem,
		Jobs: q.jobs,
		Handle: func(ctx context.Context, job J) {
			defer p.release(q)
			p.run(ctx, key, job)
		},
		Done: p.wg.Done,
	}
	if p.idle > 0 {
		opts.IdleTimeout = p.idle
		opts.Idle = func() bool { return p.retire(key, q) }
	}
	Start(opts)
}

// retire removes q when nothing is queued or being submitted to it.
func (p *Pool[K, J]) retire(key K, q *queue[J]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q.pending > 0 {
		return false
	}
	if p.queues[key] == q {
		delete(p.queues, key)
	}
	return true
}

func (p *Pool[K, J]) run(ctx context.Context, key K, job J) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker_panic", "key", key, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	if p.handle != nil {
		p.handle(ctx, key, job)
	}
}

// Close stops accepting jobs, cancels the workers and waits for them to
// exit. Jobs still queued are abandoned; a job being handled sees its context
// cancelled.
func (p *Pool[K, J]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}
