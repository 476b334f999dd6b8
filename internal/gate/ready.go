// Package gate holds the one-shot readiness signal that releases host
// threads once every hook is in place.
package gate

import "sync"

// Ready records "initialization complete". It starts false, is set at most
// once, and never goes back.
type Ready struct {
	mu   sync.Mutex
	cond *sync.Cond
	done bool
}

func NewReady() *Ready {
	r := &Ready{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Set marks the flag and wakes every waiter. It reports whether this call
// performed the transition.
func (r *Ready) Set() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	r.cond.Broadcast()
	return true
}

// Wait blocks until Set has been called. There is no timeout.
func (r *Ready) Wait() {
	r.mu.Lock()
	for !r.done {
		r.cond.Wait()
	}
	r.mu.Unlock()
}

func (r *Ready) IsSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
