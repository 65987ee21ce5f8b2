package kernel

// Stats is a snapshot of one counter.
type Stats struct {
	// Total is the number of participating modules.
	Total int `json:"total"`
	// Ready is the number of participating modules in StateReady.
	Ready int `json:"ready"`
	// Pending counts modules that may still reveal new dependencies
	// (StateCreated and StateLoading).
	Pending int `json:"pending"`
	// ByState holds the non-zero per-state counts keyed by state name.
	ByState map[string]int `json:"by_state,omitempty"`
}

// Counter tallies the states of its participating modules.
type Counter struct {
	counts  [numStates]int
	members map[*module]struct{}
}

func newCounter() *Counter {
	return &Counter{members: make(map[*module]struct{})}
}

func (c *Counter) snapshot() Stats {
	var s Stats
	for st, n := range c.counts {
		s.Total += n
		if n == 0 {
			continue
		}
		if State(st).pending() {
			s.Pending += n
		}
		if s.ByState == nil {
			s.ByState = make(map[string]int)
		}
		s.ByState[State(st).String()] = n
	}
	s.Ready = c.counts[StateReady]
	return s
}

// join makes m and, recursively, its current parents participate in c.
func (k *Kernel) join(m *module, c *Counter) {
	stack := []*module{m}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := c.members[cur]; ok {
			continue
		}
		c.members[cur] = struct{}{}
		c.counts[cur.state]++
		cur.counters[c] = struct{}{}
		for key := range cur.parents {
			if p, ok := k.modules[key]; ok {
				stack = append(stack, p)
			}
		}
	}
}

// leave removes m from c.
func (c *Counter) leave(m *module) {
	if _, ok := c.members[m]; !ok {
		return
	}
	delete(c.members, m)
	c.counts[m.state]--
	delete(m.counters, c)
}

// discard detaches every participant from c.
func (c *Counter) discard() {
	for m := range c.members {
		c.leave(m)
	}
}

// move shifts m between state slots in every counter it participates in.
func (m *module) move(to State) {
	for c := range m.counters {
		c.counts[m.state]--
		c.counts[to]++
	}
	m.state = to
}
