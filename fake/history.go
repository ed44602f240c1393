package fake

import "sync"

// History is the append-only list of recorded calls of one fake.
// Appends and reads may run concurrently; a read returns a prefix that
// later appends never modify.
type History struct {
	mu    sync.RWMutex
	calls []*Call
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

func (h *History) append(call *Call) {
	h.mu.Lock()
	defer h.mu.Unlock()

	call.sequence = uint64(len(h.calls) + 1)
	h.calls = append(h.calls, call)
}

// Calls returns the recorded calls in order.
func (h *History) Calls() []*Call {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.calls[:len(h.calls):len(h.calls)]
}

// Len returns the number of recorded calls.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.calls)
}

// NthCall returns the nth recorded call (1-based), or nil.
func (h *History) NthCall(n int) *Call {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > 0 && n <= len(h.calls) {
		return h.calls[n-1]
	}
	return nil
}

// Count returns how many recorded calls satisfy match.
func (h *History) Count(match func(*Call) bool) int {
	n := 0
	for _, call := range h.Calls() {
		if match(call) {
			n++
		}
	}
	return n
}

func (h *History) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls = nil
}
