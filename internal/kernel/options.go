package kernel

import "log/slog"

// Option configures a Kernel.
type Option func(*Kernel)

// WithPolicy sets the order in which queued modules are fetched.
func WithPolicy(p Policy) Option {
	return func(k *Kernel) {
		if p != nil {
			k.policy = p
		}
	}
}

// WithErrorHandler sets the function that receives initializer and
// uninitializer failures. It runs on the dispatcher goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(k *Kernel) {
		k.onError = fn
	}
}

// WithLogger sets the kernel logger. By default the logger is taken from the
// context passed to New.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}
