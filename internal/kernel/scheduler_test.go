package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostChildren_Pick(t *testing.T) {
	testCases := []struct {
		name  string
		queue []Candidate
		want  int
	}{
		{name: "single", queue: []Candidate{{Key: "a"}}, want: 0},
		{name: "all equal keeps arrival order", queue: []Candidate{{Key: "a"}, {Key: "b"}}, want: 0},
		{name: "most children wins", queue: []Candidate{{Key: "a", Children: 1}, {Key: "b", Children: 3}, {Key: "c", Children: 2}}, want: 1},
		{name: "ties go to the earlier module", queue: []Candidate{{Key: "a"}, {Key: "b", Children: 2}, {Key: "c", Children: 2}}, want: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MostChildren.Pick(tc.queue))
		})
	}
}

func TestFIFO_Pick(t *testing.T) {
	assert.Equal(t, 0, FIFO.Pick([]Candidate{{Key: "a"}, {Key: "b", Children: 5}}))
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("fifo")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Pick([]Candidate{{Key: "a"}, {Key: "b", Children: 1}}))

	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Pick([]Candidate{{Key: "a"}, {Key: "b", Children: 1}}))

	_, err = PolicyByName("random")
	assert.Error(t, err)
}

func TestScheduler_OutOfRangePickFallsBackToFront(t *testing.T) {
	s := &scheduler{policy: PolicyFunc(func([]Candidate) int { return 7 })}
	a := &module{key: "a"}
	b := &module{key: "b"}
	s.enqueue(a)
	s.enqueue(b)

	assert.Same(t, a, s.next())
	assert.Nil(t, s.next(), "only one module is fetched at a time")

	assert.True(t, s.remove(a))
	assert.Same(t, b, s.next())
}

func TestScheduler_RemoveQueued(t *testing.T) {
	s := &scheduler{policy: FIFO}
	a := &module{key: "a"}
	b := &module{key: "b"}
	s.enqueue(a)
	s.enqueue(b)

	assert.False(t, s.remove(a))
	assert.Same(t, b, s.next())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "uninitializing", StateUninitializing.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestState_Pending(t *testing.T) {
	for st := StateCreated; st < numStates; st++ {
		assert.Equal(t, st == StateCreated || st == StateLoading, st.pending(), st.String())
	}
}
