package aural

import "sync/atomic"

// Handoff publishes immutable objects from a writer thread to the audio
// thread without locks. The writer fills the staging slot and raises a flag;
// the audio thread promotes the staged object to the visible slot at the top
// of its next callback. Within a frame every read sees the same object, and
// a sequence of publishes is observed prefix-monotonically: the audio thread
// may skip intermediates but never sees them out of order.
//
// Published objects must be immutable; replacing content means publishing a
// new object. The zero Handoff is ready to use.
type Handoff[T any] struct {
	staged  atomic.Pointer[T]
	written atomic.Bool

	// visible is owned by the audio thread.
	visible *T
}

// Publish stages obj for the audio thread. Safe to call from any thread; the
// most recent publish wins.
func (h *Handoff[T]) Publish(obj *T) {
	h.staged.Store(obj)
	h.written.Store(true)
}

// Snapshot promotes any newly staged object and returns the visible one.
// Must only be called from the audio thread, once per frame at the top of
// the callback.
func (h *Handoff[T]) Snapshot() *T {
	if h.written.Load() {
		h.written.Store(false)
		if staged := h.staged.Load(); staged != nil {
			h.visible = staged
		}
	}
	return h.visible
}

// Peek returns the currently visible object without promoting staged data.
func (h *Handoff[T]) Peek() *T {
	return h.visible
}
