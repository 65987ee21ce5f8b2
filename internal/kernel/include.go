package kernel

import (
	"context"
	"slices"

	"github.com/specialistvlad/modkernel/internal/modpath"
)

type fetchKey struct{}

// fetch identifies the module a Load call was made for.
type fetch struct {
	k *Kernel
	m *module
}

// Include declares that the module being fetched depends on path. ctx must
// be the context handed to Loader.Load, or derived from it. Relative paths
// are resolved against the including module's key.
//
// Include fails with a *CycleError if path already depends on the including
// module; in that case the including module is invalidated.
func Include(ctx context.Context, path string) error {
	f, ok := ctx.Value(fetchKey{}).(*fetch)
	if !ok {
		return ErrNotFetching
	}

	var err error
	if callErr := f.k.do(ctx, func() { err = f.k.include(f.m, path) }); callErr != nil {
		return callErr
	}
	return err
}

func (k *Kernel) include(m *module, raw string) error {
	if !k.live(m) || m.state != StateLoading || k.sched.active != m {
		return ErrNotFetching
	}

	key := modpath.Resolve(raw, m.key)
	if _, linked := m.parents[key]; linked {
		return nil
	}

	if cycle := k.findCycle(m, key); cycle != nil {
		err := &CycleError{Cycle: cycle}
		k.invalidate(m, err)
		return err
	}

	p := k.resolve(key)
	m.parents[key] = struct{}{}
	p.children[m.key] = struct{}{}
	for c := range m.counters {
		k.join(p, c)
	}
	m.log.Debug("Dependency linked.", "dependency", key)
	return nil
}

// findCycle reports the include chain that linking m -> key would close, or
// nil. It walks m's children closure depth first looking for key.
func (k *Kernel) findCycle(m *module, key string) []string {
	if key == m.key {
		return []string{m.key, m.key}
	}

	// via maps a visited module to the module it was reached from.
	via := map[string]string{m.key: ""}
	stack := []string{m.key}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := k.modules[cur]
		if !ok {
			continue
		}
		for _, child := range sortedKeys(node.children) {
			if _, seen := via[child]; seen {
				continue
			}
			via[child] = cur
			if child == key {
				return cycleFrom(via, m.key, key)
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// cycleFrom turns the discovery path m ~> key into the include chain
// m -> key -> ... -> m.
func cycleFrom(via map[string]string, from, key string) []string {
	// Walking back from key yields key, ..., from: each step is a module
	// included by the previous one.
	var chain []string
	for cur := key; cur != ""; cur = via[cur] {
		chain = append(chain, cur)
	}
	// chain is key ... from; prepend from to read as an include chain.
	return slices.Concat([]string{from}, chain)
}
