package kernel

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/modkernel/internal/dispatch"
)

// Callbacks are invoked on the dispatcher goroutine when a ticket completes.
// OnReady runs once every module reached StateReady. OnFail runs at most
// once, on the first module failure; OnReady never runs after it.
type Callbacks struct {
	OnReady func(t *Ticket)
	OnFail  func(t *Ticket, err error)
}

// Ticket is a reservation over a fixed set of modules. Modules stay loaded
// while a ticket holding them is not released.
type Ticket struct {
	id      uint64
	k       *Kernel
	keys    []string
	modules []*module
	cb      Callbacks

	// Loop-owned.
	remaining int
	failed    bool
	succeeded bool
	released  bool
	stats     *Counter

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// ID returns the kernel-unique ticket number.
func (t *Ticket) ID() uint64 { return t.id }

// Paths returns the canonical keys the ticket reserves, deduplicated, in
// request order.
func (t *Ticket) Paths() []string {
	return append([]string(nil), t.keys...)
}

// Done is closed when the ticket succeeds, fails, or is released.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err returns nil while the ticket is pending or after it succeeded, the
// first module failure after it failed, and ErrTicketReleased when it was
// released before completing.
func (t *Ticket) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until Done is closed and returns Err. It must not be called
// from a hook or callback.
func (t *Ticket) Wait(ctx context.Context) error {
	if t.k.d.OnLoop() {
		return fmt.Errorf("kernel: Ticket.Wait: %w", dispatch.ErrReentrant)
	}
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

func (t *Ticket) pending() bool {
	return !t.failed && !t.succeeded && !t.released
}

// require registers a ticket over keys. Runs on the loop.
func (k *Kernel) require(keys []string, cb Callbacks) *Ticket {
	k.nextTicket++
	t := &Ticket{
		id:   k.nextTicket,
		k:    k,
		keys: keys,
		cb:   cb,
		done: make(chan struct{}),
	}
	k.tickets[t] = struct{}{}

	for _, key := range keys {
		m := k.resolve(key)
		t.modules = append(t.modules, m)
		m.reservations[t] = struct{}{}
		if m.state == StateReady {
			k.postReady(t, m)
		} else {
			m.waiters = append(m.waiters, t)
		}
	}
	t.remaining = len(t.modules)
	if t.remaining == 0 {
		k.d.Post(func() { k.ticketSucceeded(t) })
	}

	k.logger.Debug("Ticket created.", "ticket", t.id, "modules", keys)
	return t
}

func (k *Kernel) postReady(t *Ticket, m *module) {
	k.d.Post(func() { k.ticketModuleReady(t, m) })
}

func (k *Kernel) postFailed(t *Ticket, m *module, err error) {
	k.d.Post(func() { k.ticketFailed(t, m, err) })
}

func (k *Kernel) ticketModuleReady(t *Ticket, m *module) {
	if !t.pending() {
		return
	}
	t.remaining--
	if t.remaining == 0 {
		k.ticketSucceeded(t)
	}
}

func (k *Kernel) ticketSucceeded(t *Ticket) {
	if !t.pending() {
		return
	}
	t.succeeded = true
	t.finish(nil)
	k.logger.Debug("Ticket ready.", "ticket", t.id)
	if t.cb.OnReady != nil {
		t.cb.OnReady(t)
	}
}

func (k *Kernel) ticketFailed(t *Ticket, m *module, err error) {
	if !t.pending() {
		return
	}
	t.failed = true
	t.finish(err)
	k.logger.Warn("Ticket failed.", "ticket", t.id, "module", m.key, "error", err)
	k.release(t)
	if t.cb.OnFail != nil {
		t.cb.OnFail(t, err)
	}
}

// release unreserves every module of t. Safe to call more than once.
func (k *Kernel) release(t *Ticket) {
	if t.released {
		return
	}
	if t.pending() {
		t.finish(ErrTicketReleased)
	}
	t.released = true
	delete(k.tickets, t)
	if t.stats != nil {
		t.stats.discard()
		t.stats = nil
	}

	for _, m := range t.modules {
		if !k.live(m) {
			continue
		}
		delete(m.reservations, t)
		m.dropWaiter(t)
		k.checkNeeded(m)
	}
	k.logger.Debug("Ticket released.", "ticket", t.id)
}
