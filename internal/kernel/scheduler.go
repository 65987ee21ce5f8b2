package kernel

import "fmt"

// Candidate describes a queued module to a Policy.
type Candidate struct {
	Key      string
	Children int
}

// Policy chooses which queued module is fetched next. Pick receives the
// queue in arrival order and returns an index into it.
type Policy interface {
	Pick(queue []Candidate) int
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(queue []Candidate) int

// Pick implements Policy.
func (f PolicyFunc) Pick(queue []Candidate) int { return f(queue) }

var (
	// MostChildren fetches the module with the most linked children first,
	// falling back to arrival order on ties.
	MostChildren Policy = PolicyFunc(pickMostChildren)

	// FIFO fetches modules in arrival order.
	FIFO Policy = PolicyFunc(func([]Candidate) int { return 0 })
)

// PolicyByName maps the names accepted on the command line to policies.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "most-children":
		return MostChildren, nil
	case "fifo":
		return FIFO, nil
	default:
		return nil, fmt.Errorf("kernel: unknown scheduling policy %q", name)
	}
}

func pickMostChildren(queue []Candidate) int {
	best := 0
	for i, c := range queue {
		if c.Children > queue[best].Children {
			best = i
		}
	}
	return best
}

// scheduler holds Created modules and the single module being fetched.
type scheduler struct {
	queue  []*module
	active *module
	policy Policy
	kicked bool
}

func (s *scheduler) enqueue(m *module) {
	s.queue = append(s.queue, m)
}

// remove drops m from the queue, or clears it as the active fetch. It
// reports whether the active slot was freed.
func (s *scheduler) remove(m *module) bool {
	if s.active == m {
		s.active = nil
		return true
	}
	for i, q := range s.queue {
		if q == m {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	return false
}

// next pops the module the policy selects, or nil when a fetch is already
// running or nothing is queued.
func (s *scheduler) next() *module {
	if s.active != nil || len(s.queue) == 0 {
		return nil
	}

	candidates := make([]Candidate, len(s.queue))
	for i, m := range s.queue {
		candidates[i] = Candidate{Key: m.key, Children: len(m.children)}
	}
	i := s.policy.Pick(candidates)
	if i < 0 || i >= len(s.queue) {
		i = 0
	}

	m := s.queue[i]
	s.queue = append(s.queue[:i], s.queue[i+1:]...)
	s.active = m
	return m
}

// kick schedules an advance on a later dispatcher turn. Repeated kicks
// before that turn collapse into one.
func (k *Kernel) kick() {
	if k.sched.kicked {
		return
	}
	k.sched.kicked = true
	k.d.Post(k.advance)
}

func (k *Kernel) advance() {
	k.sched.kicked = false
	if m := k.sched.next(); m != nil {
		k.load(m)
	}
}
