package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDispatcher runs a dispatcher in the background and stops it when the
// test ends.
func startDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-d.Done()
	})
	return d
}

func waitIdle(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
}

func TestDispatcher_RunsTasksInOrder(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, d.Post(func() { got = append(got, i) }))
	}
	waitIdle(t, d)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestDispatcher_PostNeverRunsInline(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t)

	var order []string
	err := d.Call(context.Background(), func() {
		d.Post(func() { order = append(order, "posted") })
		order = append(order, "caller")
	})
	require.NoError(t, err)
	waitIdle(t, d)

	assert.Equal(t, []string{"caller", "posted"}, order)
}

func TestDispatcher_PanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var recovered []any
	d := startDispatcher(t, WithPanicHandler(func(r any) {
		mu.Lock()
		defer mu.Unlock()
		recovered = append(recovered, r)
	}))

	ran := false
	d.Post(func() { panic("boom") })
	d.Post(func() { ran = true })
	waitIdle(t, d)

	assert.True(t, ran)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"boom"}, recovered)
}

func TestDispatcher_CallFromLoopRunsInline(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t)

	var onLoop, inner bool
	err := d.Call(context.Background(), func() {
		onLoop = d.OnLoop()
		// A nested Call must not deadlock waiting for the running task.
		_ = d.Call(context.Background(), func() { inner = true })
	})

	require.NoError(t, err)
	assert.True(t, onLoop)
	assert.True(t, inner)
	assert.False(t, d.OnLoop())
}

func TestDispatcher_CallReportsPanic(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t, WithPanicHandler(func(any) {}))

	err := d.Call(context.Background(), func() { panic("bad task") })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad task")
}

func TestDispatcher_WaitHonorsHolds(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t)

	release := d.Hold()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Post(func() {
			release()
			release() // second release is a no-op
			close(done)
		})
	}()

	waitIdle(t, d)
	<-done
}

func TestDispatcher_WaitFromLoopIsRejected(t *testing.T) {
	t.Parallel()
	d := startDispatcher(t)

	var waitErr error
	require.NoError(t, d.Call(context.Background(), func() {
		waitErr = d.Wait(context.Background())
	}))

	assert.ErrorIs(t, waitErr, ErrReentrant)
}

func TestDispatcher_StoppedRejectsWork(t *testing.T) {
	t.Parallel()
	d := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	cancel()
	<-d.Done()

	assert.False(t, d.Post(func() {}))
	assert.ErrorIs(t, d.Call(context.Background(), func() {}), ErrStopped)
	assert.ErrorIs(t, d.Wait(context.Background()), ErrStopped)
	assert.ErrorIs(t, d.Run(context.Background()), ErrAlreadyRunning)
}

func TestGoroutineID_DiffersAcrossGoroutines(t *testing.T) {
	t.Parallel()
	here := goroutineID()
	there := make(chan uint64)
	go func() { there <- goroutineID() }()

	other := <-there
	assert.NotZero(t, here)
	assert.NotZero(t, other)
	assert.NotEqual(t, here, other)
}
