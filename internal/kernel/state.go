package kernel

import "fmt"

// State is the lifecycle position of a module. A destroyed module has no
// state; it is simply no longer registered.
type State int

const (
	// StateCreated is a registered module waiting for the scheduler to fetch it.
	StateCreated State = iota
	// StateLoading is the module currently being fetched.
	StateLoading
	// StateWaiting is a fetched module whose dependencies are not all ready.
	StateWaiting
	// StateInitializing is a module whose initializer has been scheduled or is running.
	StateInitializing
	// StateReady is an initialized module.
	StateReady
	// StateUninitializing is a module whose uninitializer has been scheduled or is running.
	StateUninitializing

	numStates
)

var stateNames = [numStates]string{
	StateCreated:        "created",
	StateLoading:        "loading",
	StateWaiting:        "waiting",
	StateInitializing:   "initializing",
	StateReady:          "ready",
	StateUninitializing: "uninitializing",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// pending reports whether a module in this state may still reveal new
// dependencies.
func (s State) pending() bool {
	return s == StateCreated || s == StateLoading
}
