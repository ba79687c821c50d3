package session

import "time"

// WithClock replaces the holder's time source.
func (h *Holder) WithClock(now func() time.Time) *Holder {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.now = now

	return h
}
