package print

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnInitPrint_LogsMessage(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// --- Act ---
	err := OnInitPrint(ctx, map[string]string{"message": "hello", "extra": "1"})

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "phase=init")
	assert.Contains(t, out, "message=hello")
	assert.Contains(t, out, "key=extra")
}

func TestOnUninitPrint_MissingMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, OnUninitPrint(ctx, map[string]string{}))
	assert.Contains(t, buf.String(), "phase=uninit")
	assert.Contains(t, buf.String(), `message=(null)`)
}

func TestModule_Register(t *testing.T) {
	t.Parallel()

	h := handlers.New()
	(&Module{}).Register(h)

	assert.Equal(t, []string{"OnInitPrint", "OnUninitPrint"}, h.Names())
}
