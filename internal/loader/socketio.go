package loader

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
	"github.com/specialistvlad/modkernel/internal/kernel"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// FetchEvent is emitted with {"path": key} to request a module.
	FetchEvent = "fetch"
	// ModuleEvent carries the server's answer: {"path", "source", "error"}.
	ModuleEvent = "module"

	defaultFetchTimeout = 10 * time.Second
	connectTimeout      = 15 * time.Second
)

// ErrNotConnected is returned by fetches made before Connect succeeded.
var ErrNotConnected = errors.New("socket.io loader is not connected")

// SocketIOConfig describes the remote module server.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// SocketIOLoader fetches manifests from a module server over socket.io.
type SocketIOLoader struct {
	cfg      SocketIOConfig
	handlers *handlers.Handlers

	mu      sync.Mutex
	client  *socket.Socket
	pending map[string][]chan moduleReply
}

type moduleReply struct {
	source string
	err    error
}

// NewSocketIOLoader creates a loader. Call Connect before handing it to a
// kernel.
func NewSocketIOLoader(cfg SocketIOConfig, h *handlers.Handlers) *SocketIOLoader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	return &SocketIOLoader{
		cfg:      cfg,
		handlers: h,
		pending:  make(map[string][]chan moduleReply),
	}
}

// Connect dials the module server and waits for the connection.
func (l *SocketIOLoader) Connect(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("loader", "socketio", "url", l.cfg.URL)
	logger.Info("Connecting to module server...")

	parsedURL, err := url.Parse(l.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("failed to parse URL: %q needs a scheme and a host", l.cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if l.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(l.cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("EVENT HANDLER: 'connect_error' event fired", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})
	io.On(types.EventName(ModuleEvent), func(args ...any) {
		l.deliver(args...)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}

	l.mu.Lock()
	l.client = io
	l.mu.Unlock()
	return nil
}

// Close disconnects from the module server.
func (l *SocketIOLoader) Close() error {
	l.mu.Lock()
	client := l.client
	l.client = nil
	l.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
	return nil
}

// Load implements kernel.Loader.
func (l *SocketIOLoader) Load(ctx context.Context, path string, done func(kernel.Descriptor, error)) {
	go func() {
		src, err := l.fetch(ctx, path)
		if err != nil {
			done(kernel.Descriptor{}, err)
			return
		}
		done(evaluateSource(ctx, []byte(src), path, l.handlers))
	}()
}

func (l *SocketIOLoader) fetch(ctx context.Context, path string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	reply := make(chan moduleReply, 1)
	l.mu.Lock()
	client := l.client
	if client == nil {
		l.mu.Unlock()
		return "", ErrNotConnected
	}
	l.pending[path] = append(l.pending[path], reply)
	l.mu.Unlock()
	defer l.forget(path, reply)

	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	logger.Debug("Emitting event", "event", FetchEvent, "path", path)
	client.Emit(FetchEvent, map[string]any{"path": path})

	select {
	case r := <-reply:
		return r.source, r.err
	case <-fetchCtx.Done():
		return "", fmt.Errorf("timed out after %v waiting for module %q: %w", l.cfg.Timeout, path, fetchCtx.Err())
	}
}

// deliver routes a ModuleEvent payload to every fetch waiting for its path.
func (l *SocketIOLoader) deliver(args ...any) {
	if len(args) == 0 {
		return
	}
	path, r, ok := decodeModuleReply(args[0])
	if !ok {
		return
	}

	l.mu.Lock()
	waiters := l.pending[path]
	delete(l.pending, path)
	l.mu.Unlock()

	for _, w := range waiters {
		w <- r
	}
}

func (l *SocketIOLoader) forget(path string, reply chan moduleReply) {
	l.mu.Lock()
	defer l.mu.Unlock()
	waiters := l.pending[path]
	for i, w := range waiters {
		if w == reply {
			l.pending[path] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(l.pending[path]) == 0 {
		delete(l.pending, path)
	}
}

// decodeModuleReply reads a {"path", "source", "error"} object as decoded
// from JSON.
func decodeModuleReply(payload any) (string, moduleReply, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", moduleReply{}, false
	}
	path, ok := obj["path"].(string)
	if !ok || path == "" {
		return "", moduleReply{}, false
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return path, moduleReply{err: fmt.Errorf("module server: %s", msg)}, true
	}
	source, ok := obj["source"].(string)
	if !ok {
		return path, moduleReply{err: fmt.Errorf("module server: reply for %q has no source", path)}, true
	}
	return path, moduleReply{source: source}, true
}
