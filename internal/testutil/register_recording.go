package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/modkernel/internal/handlers"
)

// ErrRefused is returned by the OnInitRefuse handler.
var ErrRefused = errors.New("refused")

// RecordingModule registers lifecycle handlers that record the "name"
// config value of every module they run for:
//
//	OnInitRecord   appends "init:<name>"
//	OnUninitRecord appends "uninit:<name>"
//	OnInitRefuse   fails with ErrRefused
type RecordingModule struct {
	mu     sync.Mutex
	events []string
}

// Register implements registry.Module.
func (m *RecordingModule) Register(h *handlers.Handlers) {
	h.RegisterHandler("OnInitRecord", &handlers.RegisteredHandler{
		Fn: func(_ context.Context, cfg map[string]string) error {
			m.add("init:" + cfg["name"])
			return nil
		},
	})
	h.RegisterHandler("OnUninitRecord", &handlers.RegisteredHandler{
		Fn: func(_ context.Context, cfg map[string]string) error {
			m.add("uninit:" + cfg["name"])
			return nil
		},
	})
	h.RegisterHandler("OnInitRefuse", &handlers.RegisteredHandler{
		Fn: func(context.Context, map[string]string) error {
			return ErrRefused
		},
	})
}

func (m *RecordingModule) add(e string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of the recorded events in order.
func (m *RecordingModule) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// RecordingManifest returns a manifest using the recording handlers. includes
// is the raw HCL list body, e.g. `"./a.hcl", "b.hcl"`.
func RecordingManifest(name, includes string) string {
	return `
include = [` + includes + `]
lifecycle {
  on_init   = "OnInitRecord"
  on_uninit = "OnUninitRecord"
}
config = {
  name = "` + name + `"
}
`
}
