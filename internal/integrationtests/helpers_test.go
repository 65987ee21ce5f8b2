package integrationtests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/modkernel/internal/app"
	"github.com/specialistvlad/modkernel/internal/testutil"
	"github.com/stretchr/testify/require"
)

// result holds the outcome of one application run.
type result struct {
	Err    error
	Events []string
	Logs   string
}

// runApp writes files into a temporary module root and runs the app once
// against it with the recording handlers registered.
func runApp(t *testing.T, files map[string]string, mutate func(*app.Config)) *result {
	t.Helper()

	cfg := app.DefaultConfig()
	cfg.Root = testutil.WriteTree(t, files)
	cfg.Modules = []string{"main.hcl"}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	if mutate != nil {
		mutate(&cfg)
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	testutil.LogOnFailure(t, logs)
	rec := &testutil.RecordingModule{}

	a, err := app.New(logs, validated, rec)
	if err != nil {
		return &result{Err: err, Logs: logs.String()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = a.Run(ctx)

	return &result{Err: err, Events: rec.Events(), Logs: logs.String()}
}

// assertBalanced checks that every initialized module was uninitialized
// exactly once.
func assertBalanced(t *testing.T, events []string) {
	t.Helper()

	open := make(map[string]int)
	for _, e := range events {
		if name, ok := strings.CutPrefix(e, "init:"); ok {
			open[name]++
		} else if name, ok := strings.CutPrefix(e, "uninit:"); ok {
			open[name]--
		}
	}
	for name, n := range open {
		require.Zero(t, n, "module %q init/uninit mismatch: %v", name, events)
	}
}
