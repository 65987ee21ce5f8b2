package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrStopped is returned when work is submitted to, or awaited on, a
	// dispatcher whose loop has exited.
	ErrStopped = errors.New("dispatch: dispatcher is stopped")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("dispatch: dispatcher is already running")

	// ErrReentrant is returned when Run or Wait is called from the loop itself.
	ErrReentrant = errors.New("dispatch: cannot block on the dispatcher from inside the loop")
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler sets the function that receives values recovered from
// panicking tasks. The default logs them through slog.Default().
func WithPanicHandler(fn func(recovered any)) Option {
	return func(d *Dispatcher) {
		d.onPanic = fn
	}
}

// Dispatcher is a FIFO task queue drained by a single loop goroutine.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	holds   int
	busy    bool
	stopped bool
	idle    []chan struct{}

	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool
	loopID  atomic.Uint64

	onPanic func(recovered any)
}

// New creates a dispatcher. Nothing runs until Run is called.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		onPanic: func(recovered any) {
			slog.Error("dispatch: task panicked", "panic", recovered)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Post schedules fn on a later turn of the loop. It never runs fn
// synchronously. It returns false if the dispatcher has stopped.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it. When the caller is already on
// the loop goroutine fn runs inline. If ctx ends first Call returns its
// error, but fn may still run later.
func (d *Dispatcher) Call(ctx context.Context, fn func()) error {
	if d.OnLoop() {
		fn()
		return nil
	}

	done := make(chan struct{})
	var callErr error
	posted := d.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("dispatch: call panicked: %v", r)
			}
			close(done)
		}()
		fn()
	})
	if !posted {
		return ErrStopped
	}

	select {
	case <-done:
		return callErr
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		// The loop may have finished our task right before exiting.
		select {
		case <-done:
			return callErr
		default:
			return ErrStopped
		}
	}
}

// Hold registers an outstanding operation that will post work later. The
// returned function releases the hold; extra calls are no-ops.
func (d *Dispatcher) Hold() (release func()) {
	d.mu.Lock()
	d.holds++
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.holds--
			if d.idleLocked() {
				d.notifyIdleLocked()
			}
			d.mu.Unlock()
		})
	}
}

// Wait blocks until the queue is empty, no task is running and no hold is
// outstanding.
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d.OnLoop() {
		return ErrReentrant
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	if d.idleLocked() {
		d.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	d.idle = append(d.idle, ch)
	d.mu.Unlock()

	select {
	case <-ch:
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if stopped {
			return ErrStopped
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnLoop reports whether the caller runs on the loop goroutine.
func (d *Dispatcher) OnLoop() bool {
	id := d.loopID.Load()
	if id == 0 {
		return false
	}
	return goroutineID() == id
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run drains the queue until ctx is canceled. Tasks still queued at that
// point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.OnLoop() {
		return ErrReentrant
	}
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	d.loopID.Store(goroutineID())
	defer func() {
		d.loopID.Store(0)
		d.stop()
		close(d.done)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if fn, ok := d.next(); ok {
			d.execute(fn)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		d.busy = false
		if d.idleLocked() {
			d.notifyIdleLocked()
		}
		return nil, false
	}

	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	d.busy = true
	return fn, true
}

// execute runs one task, recovering a panic so the loop survives it.
func (d *Dispatcher) execute(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.onPanic(r)
		}
	}()
	fn()
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.queue = nil
	d.busy = false
	d.notifyIdleLocked()
}

func (d *Dispatcher) idleLocked() bool {
	return !d.busy && len(d.queue) == 0 && d.holds == 0
}

func (d *Dispatcher) notifyIdleLocked() {
	for _, ch := range d.idle {
		close(ch)
	}
	d.idle = nil
}

// goroutineID parses the current goroutine's ID out of its stack header
// ("goroutine NNN [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
