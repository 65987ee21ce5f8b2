package kernel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInitializer means a fetched module declared neither an
	// initializer nor any dependency.
	ErrMissingInitializer = errors.New("module has no initializer and no dependencies")

	// ErrCircularDependency is wrapped by CycleError.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrFetchFailed is wrapped by FetchError.
	ErrFetchFailed = errors.New("module fetch failed")

	// ErrInitializer is wrapped by HookError for failed initializers.
	ErrInitializer = errors.New("module initializer failed")

	// ErrUninitializer is wrapped by HookError for failed uninitializers.
	ErrUninitializer = errors.New("module uninitializer failed")

	// ErrDependencyFailed marks a module invalidated because a module it
	// includes was invalidated.
	ErrDependencyFailed = errors.New("dependency failed")

	// ErrNotFetching is returned by Include when the context does not belong
	// to the module currently being fetched.
	ErrNotFetching = errors.New("include called outside of an active module fetch")

	// ErrTicketReleased is reported by a ticket released before it completed.
	ErrTicketReleased = errors.New("ticket released before completion")

	// ErrKernelClosed is returned by calls made after Close.
	ErrKernelClosed = errors.New("kernel is closed")
)

// CycleError reports an include that would close a dependency cycle. Cycle
// lists the include chain starting and ending at the requesting module.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularDependency, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}

// FetchError reports a loader failure for one module.
type FetchError struct {
	Module string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFetchFailed, e.Module, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// Phase names the lifecycle hook a HookError came from.
type Phase string

const (
	PhaseInit   Phase = "init"
	PhaseUninit Phase = "uninit"
)

// HookError reports an initializer or uninitializer that returned an error
// or panicked.
type HookError struct {
	Module string
	Phase  Phase
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.sentinel(), e.Module, e.Err)
}

func (e *HookError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *HookError) sentinel() error {
	if e.Phase == PhaseUninit {
		return ErrUninitializer
	}
	return ErrInitializer
}

func dependencyFailed(dependency string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependencyFailed, dependency, cause)
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
