package orchestrator

import "sync"

// GuardState is the registration state tracked by a Guard.
type GuardState int

const (
	Uninitialized GuardState = iota
	HandlersRegistered
)

func (s GuardState) String() string {
	switch s {
	case HandlersRegistered:
		return "handlers-registered"
	default:
		return "uninitialized"
	}
}

// Guard makes handler registration happen at most once for the lifetime of
// the host process. Share one Guard between every Plugin built for the same
// host.
type Guard struct {
	mu    sync.Mutex
	state GuardState
}

// Begin moves the guard to HandlersRegistered and reports whether the caller
// is the one that should register.
func (g *Guard) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == HandlersRegistered {
		return false
	}
	g.state = HandlersRegistered
	return true
}

func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
