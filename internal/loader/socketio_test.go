package loader

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/modkernel/internal/handlers"
	"github.com/specialistvlad/modkernel/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeModuleReply(t *testing.T) {
	testCases := []struct {
		name       string
		payload    any
		wantOK     bool
		wantPath   string
		wantSource string
		wantErr    string
	}{
		{name: "source", payload: map[string]any{"path": "a.hcl", "source": "include = []"}, wantOK: true, wantPath: "a.hcl", wantSource: "include = []"},
		{name: "server error", payload: map[string]any{"path": "a.hcl", "error": "not found"}, wantOK: true, wantPath: "a.hcl", wantErr: "module server: not found"},
		{name: "empty error is ignored", payload: map[string]any{"path": "a.hcl", "error": "", "source": "x = 1"}, wantOK: true, wantPath: "a.hcl", wantSource: "x = 1"},
		{name: "missing source", payload: map[string]any{"path": "a.hcl"}, wantOK: true, wantPath: "a.hcl", wantErr: "has no source"},
		{name: "missing path", payload: map[string]any{"source": "x"}, wantOK: false},
		{name: "not an object", payload: "a.hcl", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, r, ok := decodeModuleReply(tc.payload)

			require.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantSource, r.source)
			if tc.wantErr == "" {
				assert.NoError(t, r.err)
			} else {
				assert.ErrorContains(t, r.err, tc.wantErr)
			}
		})
	}
}

func TestSocketIOLoader_DeliverRoutesByPath(t *testing.T) {
	l := NewSocketIOLoader(SocketIOConfig{URL: "http://localhost:1"}, handlers.New())
	a1 := make(chan moduleReply, 1)
	a2 := make(chan moduleReply, 1)
	b := make(chan moduleReply, 1)
	l.pending["a.hcl"] = []chan moduleReply{a1, a2}
	l.pending["b.hcl"] = []chan moduleReply{b}

	l.deliver(map[string]any{"path": "a.hcl", "source": "include = []"})
	l.deliver("garbage")
	l.deliver()

	assert.Equal(t, "include = []", (<-a1).source)
	assert.Equal(t, "include = []", (<-a2).source)
	assert.Empty(t, b)
	assert.NotContains(t, l.pending, "a.hcl")

	l.forget("b.hcl", b)
	assert.Empty(t, l.pending)
}

func TestSocketIOLoader_LoadBeforeConnect(t *testing.T) {
	l := NewSocketIOLoader(SocketIOConfig{URL: "http://localhost:1"}, handlers.New())

	got := make(chan error, 1)
	l.Load(context.Background(), "a.hcl", func(_ kernel.Descriptor, err error) { got <- err })

	select {
	case err := <-got:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not complete")
	}
}

func TestSocketIOLoader_ConnectRejectsBadURL(t *testing.T) {
	l := NewSocketIOLoader(SocketIOConfig{URL: "not a url"}, handlers.New())

	err := l.Connect(context.Background())

	assert.ErrorContains(t, err, "failed to parse URL")
	assert.NoError(t, l.Close())
}

func TestNewSocketIOLoader_DefaultTimeout(t *testing.T) {
	l := NewSocketIOLoader(SocketIOConfig{URL: "http://localhost:1"}, nil)
	assert.Equal(t, defaultFetchTimeout, l.cfg.Timeout)
}
