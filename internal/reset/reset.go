// Package reset provides a shared reset line for components living in
// different clock domains. Asserting the line bumps a generation counter;
// each component holds a Watch and clears its own state the next time it
// steps. No component depends on another's teardown order.
package reset

import "sync/atomic"

// Line is a global reset signal. The zero value is ready to use.
type Line struct {
	gen atomic.Uint64
}

// Assert requests a reset of every component watching the line.
func (l *Line) Assert() {
	l.gen.Add(1)
}

// Generation returns the number of times the line has been asserted.
func (l *Line) Generation() uint64 {
	if l == nil {
		return 0
	}
	return l.gen.Load()
}

// Watch returns a watcher that starts at the current generation, so a freshly
// constructed component does not see a reset for assertions made before it.
func (l *Line) Watch() Watch {
	return Watch{line: l, seen: l.Generation()}
}

// Watch tracks the last generation seen by one component.
// Not safe for concurrent use; each component owns its own Watch.
type Watch struct {
	line *Line
	seen uint64
}

// Pending reports whether the line was asserted since the last call.
// A Watch on a nil line never reports a reset.
func (w *Watch) Pending() bool {
	if w.line == nil {
		return false
	}
	g := w.line.Generation()
	if g == w.seen {
		return false
	}
	w.seen = g
	return true
}
