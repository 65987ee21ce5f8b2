package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
)

// module is the registry record for one key. Every field is owned by the
// dispatcher goroutine.
type module struct {
	key   string
	state State

	// parents are the modules this one includes; children include this one.
	parents  map[string]struct{}
	children map[string]struct{}

	reservations map[*Ticket]struct{}
	// waiters are reservations still expecting a ready or failure
	// notification from this module.
	waiters []*Ticket

	init   Hook
	uninit Hook

	counters map[*Counter]struct{}
	stats    *Counter

	log *slog.Logger
}

// ModuleInfo is a read-only snapshot of a registered module.
type ModuleInfo struct {
	Key          string   `json:"key"`
	State        State    `json:"-"`
	StateName    string   `json:"state"`
	Parents      []string `json:"parents,omitempty"`
	Children     []string `json:"children,omitempty"`
	Reservations int      `json:"reservations"`
}

func (m *module) info() ModuleInfo {
	return ModuleInfo{
		Key:          m.key,
		State:        m.state,
		StateName:    m.state.String(),
		Parents:      sortedKeys(m.parents),
		Children:     sortedKeys(m.children),
		Reservations: len(m.reservations),
	}
}

func (m *module) dropWaiter(t *Ticket) {
	m.waiters = slices.DeleteFunc(m.waiters, func(w *Ticket) bool { return w == t })
}

// live reports whether m is still the registered record for its key.
// Deferred work carries record pointers, and a key may be re-registered
// with a fresh record after the old one was destroyed.
func (k *Kernel) live(m *module) bool {
	return m != nil && k.modules[m.key] == m
}

// resolve returns the record for key, registering a new one if needed.
func (k *Kernel) resolve(key string) *module {
	if m, ok := k.modules[key]; ok {
		return m
	}
	m := &module{
		key:          key,
		state:        StateCreated,
		parents:      make(map[string]struct{}),
		children:     make(map[string]struct{}),
		reservations: make(map[*Ticket]struct{}),
		counters:     make(map[*Counter]struct{}),
		log:          k.logger.With("module", key),
	}
	k.modules[key] = m
	k.join(m, k.global)
	k.sched.enqueue(m)
	k.kick()
	m.log.Debug("Module registered.")
	return m
}

func (k *Kernel) setState(m *module, to State) {
	from := m.state
	m.move(to)
	m.log.Debug("Module state changed.", "from", from, "to", to)
}

func (k *Kernel) parentsReady(m *module) bool {
	for key := range m.parents {
		if p, ok := k.modules[key]; !ok || p.state != StateReady {
			return false
		}
	}
	return true
}

func (k *Kernel) needed(m *module) bool {
	return len(m.reservations) > 0 || len(m.children) > 0
}

// load starts fetching m. The completion is posted back onto the loop and
// ignored if m was discarded in the meantime.
func (k *Kernel) load(m *module) {
	k.setState(m, StateLoading)

	release := k.d.Hold()
	var completed atomic.Bool
	done := func(desc Descriptor, err error) {
		if !completed.CompareAndSwap(false, true) {
			m.log.Warn("Loader reported completion more than once.")
			return
		}
		if !k.d.Post(func() {
			defer release()
			k.fetched(m, desc, err)
		}) {
			release()
		}
	}

	ctx := ctxlog.WithLogger(k.runCtx, m.log)
	ctx = context.WithValue(ctx, fetchKey{}, &fetch{k: k, m: m})

	m.log.Debug("Fetching module.")
	func() {
		defer func() {
			if r := recover(); r != nil {
				done(Descriptor{}, recoveredError(r))
			}
		}()
		k.loader.Load(ctx, m.key, done)
	}()
}

// fetched handles the loader's result for m.
func (k *Kernel) fetched(m *module, desc Descriptor, err error) {
	if !k.live(m) || m.state != StateLoading {
		m.log.Debug("Discarding stale fetch result.")
		return
	}
	k.finishFetch(m)

	if err != nil {
		k.invalidate(m, &FetchError{Module: m.key, Err: err})
		return
	}
	m.init, m.uninit = desc.Init, desc.Uninit
	if m.init == nil && len(m.parents) == 0 {
		k.invalidate(m, fmt.Errorf("%w: %s", ErrMissingInitializer, m.key))
		return
	}

	k.setState(m, StateWaiting)
	k.tryInit(m)
}

func (k *Kernel) finishFetch(m *module) {
	if k.sched.remove(m) {
		k.kick()
	}
}

// tryInit moves a Waiting module whose parents are all Ready to
// Initializing and schedules its initializer.
func (k *Kernel) tryInit(m *module) {
	if !k.live(m) || m.state != StateWaiting || !k.parentsReady(m) {
		return
	}
	k.setState(m, StateInitializing)
	k.d.Post(func() { k.runInit(m) })
}

func (k *Kernel) runInit(m *module) {
	if !k.live(m) || m.state != StateInitializing {
		return
	}

	var err error
	if m.init != nil {
		err = k.callHook(m, m.init)
	}
	if !k.live(m) || m.state != StateInitializing {
		return
	}

	if err != nil {
		herr := &HookError{Module: m.key, Phase: PhaseInit, Err: err}
		k.invalidate(m, herr)
		k.report(herr)
		return
	}
	if !k.needed(m) {
		k.startUninit(m)
		return
	}

	k.setState(m, StateReady)
	waiters := m.waiters
	m.waiters = nil
	for _, t := range waiters {
		k.postReady(t, m)
	}
	for _, key := range sortedKeys(m.children) {
		k.tryInit(k.modules[key])
	}
}

func (k *Kernel) startUninit(m *module) {
	k.setState(m, StateUninitializing)
	k.d.Post(func() { k.runUninit(m) })
}

func (k *Kernel) runUninit(m *module) {
	if !k.live(m) || m.state != StateUninitializing {
		return
	}

	if m.uninit != nil {
		if err := k.callHook(m, m.uninit); err != nil {
			k.report(&HookError{Module: m.key, Phase: PhaseUninit, Err: err})
		}
	}
	if !k.live(m) || m.state != StateUninitializing {
		return
	}

	if !k.needed(m) {
		k.destroy(m)
		return
	}
	if k.parentsReady(m) {
		k.setState(m, StateInitializing)
		k.d.Post(func() { k.runInit(m) })
		return
	}
	k.setState(m, StateWaiting)
}

// callHook runs a lifecycle hook, converting a panic into an error.
func (k *Kernel) callHook(m *module, hook Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return hook(ctxlog.WithLogger(k.runCtx, m.log))
}

// checkNeeded discards or winds down a module nothing depends on anymore.
// Initializing and Uninitializing modules decide when their hook returns.
func (k *Kernel) checkNeeded(m *module) {
	if !k.live(m) || k.needed(m) {
		return
	}
	switch m.state {
	case StateCreated, StateLoading, StateWaiting:
		k.destroy(m)
	case StateReady:
		k.startUninit(m)
	}
}

// invalidate fails m and everything that includes it. Pending tickets are
// notified, children are invalidated on later turns, then m is destroyed.
func (k *Kernel) invalidate(m *module, cause error) {
	if !k.live(m) {
		return
	}
	m.log.Warn("Module invalidated.", "error", cause)

	waiters := m.waiters
	m.waiters = nil
	for _, t := range waiters {
		k.postFailed(t, m, cause)
	}

	for _, key := range sortedKeys(m.children) {
		c := k.modules[key]
		delete(m.children, key)
		delete(c.parents, m.key)
		err := dependencyFailed(m.key, cause)
		k.d.Post(func() { k.invalidate(c, err) })
	}

	k.destroy(m)
}

// destroy detaches m from the graph, the counters, the scheduler and the
// registry. Former parents are re-checked for neediness on later turns.
func (k *Kernel) destroy(m *module) {
	if !k.live(m) {
		return
	}

	for _, key := range sortedKeys(m.parents) {
		p := k.modules[key]
		delete(m.parents, key)
		delete(p.children, m.key)
		k.d.Post(func() { k.checkNeeded(p) })
	}
	for c := range m.counters {
		c.leave(m)
	}
	if m.stats != nil {
		m.stats.discard()
		m.stats = nil
	}
	k.finishFetch(m)
	delete(k.modules, m.key)
	m.log.Debug("Module destroyed.")
}

func (k *Kernel) report(err error) {
	k.d.Post(func() { k.onError(err) })
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
