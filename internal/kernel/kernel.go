package kernel

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/dispatch"
	"github.com/specialistvlad/modkernel/internal/modpath"
)

// Kernel owns the module registry and drives every module through its
// lifecycle. All graph state lives on one dispatcher goroutine; the exported
// methods are safe for concurrent use and run inline when called from a
// hook or callback.
type Kernel struct {
	loader  Loader
	policy  Policy
	onError func(error)
	logger  *slog.Logger
	d       *dispatch.Dispatcher

	startOnce sync.Once
	runCtx    context.Context
	stop      context.CancelFunc

	// Loop-owned.
	modules    map[string]*module
	sched      *scheduler
	global     *Counter
	tickets    map[*Ticket]struct{}
	nextTicket uint64
}

// New creates a kernel that fetches modules through loader. The logger is
// taken from ctx unless WithLogger is given. Call Start before use.
func New(ctx context.Context, loader Loader, opts ...Option) *Kernel {
	k := &Kernel{
		loader:  loader,
		policy:  MostChildren,
		logger:  ctxlog.FromContext(ctx),
		modules: make(map[string]*module),
		global:  newCounter(),
		tickets: make(map[*Ticket]struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.onError == nil {
		k.onError = func(err error) {
			k.logger.Error("Module hook failed.", "error", err)
		}
	}
	k.sched = &scheduler{policy: k.policy}
	k.d = dispatch.New(dispatch.WithPanicHandler(func(r any) {
		k.logger.Error("Recovered panic in kernel task.", "panic", r)
	}))
	return k
}

// Start launches the dispatcher goroutine. Hooks and loaders receive
// contexts derived from ctx. Calling Start again has no effect.
func (k *Kernel) Start(ctx context.Context) {
	k.startOnce.Do(func() {
		k.runCtx, k.stop = context.WithCancel(ctxlog.WithLogger(ctx, k.logger))
		go func() {
			if err := k.d.Run(k.runCtx); err != nil {
				k.logger.Error("Kernel dispatcher exited.", "error", err)
			}
		}()
		k.logger.Debug("Kernel started.")
	})
}

// Close releases every outstanding ticket, waits for the resulting
// teardown to settle, then stops the dispatcher. If ctx ends first the
// dispatcher is stopped anyway and ctx's error is returned.
func (k *Kernel) Close(ctx context.Context) error {
	k.Start(ctx)

	err := k.do(ctx, func() {
		for _, t := range k.liveTickets() {
			k.release(t)
		}
	})
	if err == nil {
		err = k.Settle(ctx)
	}

	k.stop()
	<-k.d.Done()
	if errors.Is(err, ErrKernelClosed) {
		return nil
	}
	return err
}

// Settle blocks until no work is queued or running and no fetch is
// outstanding.
func (k *Kernel) Settle(ctx context.Context) error {
	return k.translate(k.d.Wait(ctx))
}

// Require reserves the modules at paths. Paths are resolved as top-level
// references and deduplicated. The ticket completes through cb and through
// Ticket.Done.
func (k *Kernel) Require(ctx context.Context, paths []string, cb Callbacks) (*Ticket, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			return nil, fmt.Errorf("kernel: require: empty module path")
		}
		key := modpath.Resolve(p, "")
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	var t *Ticket
	if err := k.do(ctx, func() { t = k.require(keys, cb) }); err != nil {
		// The queued require may still run after ctx ended. Its ticket never
		// reaches the caller, so drop it on the following turn.
		k.d.Post(func() {
			if t != nil {
				k.release(t)
			}
		})
		return nil, err
	}
	return t, nil
}

// Release drops the ticket's reservations. Modules nothing needs anymore
// are uninitialized and discarded. Releasing twice is a no-op.
func (k *Kernel) Release(ctx context.Context, t *Ticket) error {
	if t == nil {
		return nil
	}
	return k.do(ctx, func() { k.release(t) })
}

// Stats returns the counts over every registered module.
func (k *Kernel) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := k.do(ctx, func() { s = k.global.snapshot() })
	return s, err
}

// TicketStats returns the counts over the ticket's modules and everything
// they include. A released ticket reports zero.
func (k *Kernel) TicketStats(ctx context.Context, t *Ticket) (Stats, error) {
	var s Stats
	err := k.do(ctx, func() {
		if t.released {
			return
		}
		if t.stats == nil {
			t.stats = newCounter()
			for _, m := range t.modules {
				if k.live(m) {
					k.join(m, t.stats)
				}
			}
		}
		s = t.stats.snapshot()
	})
	return s, err
}

// ModuleStats returns the counts over the module at path and everything it
// includes. The boolean is false if no such module is registered.
func (k *Kernel) ModuleStats(ctx context.Context, path string) (Stats, bool, error) {
	key := modpath.Resolve(path, "")
	var s Stats
	var found bool
	err := k.do(ctx, func() {
		m, ok := k.modules[key]
		if !ok {
			return
		}
		found = true
		if m.stats == nil {
			m.stats = newCounter()
			k.join(m, m.stats)
		}
		s = m.stats.snapshot()
	})
	return s, found, err
}

// Module returns a snapshot of the module at path.
func (k *Kernel) Module(ctx context.Context, path string) (ModuleInfo, bool, error) {
	key := modpath.Resolve(path, "")
	var info ModuleInfo
	var found bool
	err := k.do(ctx, func() {
		if m, ok := k.modules[key]; ok {
			info, found = m.info(), true
		}
	})
	return info, found, err
}

// Modules returns snapshots of every registered module sorted by key.
func (k *Kernel) Modules(ctx context.Context) ([]ModuleInfo, error) {
	var infos []ModuleInfo
	err := k.do(ctx, func() {
		infos = make([]ModuleInfo, 0, len(k.modules))
		for _, m := range k.modules {
			infos = append(infos, m.info())
		}
		slices.SortFunc(infos, func(a, b ModuleInfo) int {
			return strings.Compare(a.Key, b.Key)
		})
	})
	return infos, err
}

// do runs fn on the dispatcher.
func (k *Kernel) do(ctx context.Context, fn func()) error {
	return k.translate(k.d.Call(ctx, fn))
}

func (k *Kernel) translate(err error) error {
	if errors.Is(err, dispatch.ErrStopped) {
		return ErrKernelClosed
	}
	return err
}

func (k *Kernel) liveTickets() []*Ticket {
	ts := make([]*Ticket, 0, len(k.tickets))
	for t := range k.tickets {
		ts = append(ts, t)
	}
	slices.SortFunc(ts, func(a, b *Ticket) int {
		return cmp.Compare(a.id, b.id)
	})
	return ts
}
