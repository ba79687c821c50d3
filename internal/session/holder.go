// Package session holds the user that is logged in to the running process.
package session

import (
	"sync"
	"time"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
)

// Holder keeps at most one logged-in user. The zero value is logged out and ready to use.
// All methods are safe for concurrent use.
type Holder struct {
	mu      sync.RWMutex
	current *domain.User
	since   time.Time
	now     func() time.Time
}

//nolint:gochecknoglobals
var (
	defaultHolder     *Holder
	defaultHolderOnce sync.Once
)

// Default returns the process-wide Holder, creating it on first use.
// Prefer New and passing the Holder explicitly; Default exists for callers
// that have no composition root to receive it from.
func Default() *Holder {
	defaultHolderOnce.Do(func() {
		defaultHolder = New()
	})

	return defaultHolder
}

// New creates an empty, logged-out Holder.
func New() *Holder {
	return &Holder{now: time.Now}
}

// LogIn stores user as the current user, replacing whoever was logged in before.
// The value is not inspected; a nil user is stored as is and reads back as absent.
func (h *Holder) LogIn(user *domain.User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = user
	h.since = h.clock()
}

// CurrentUser returns the logged-in user and true, or nil and false when nobody is logged in.
func (h *Holder) CurrentUser() (*domain.User, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.current, h.current != nil
}

// LoggedIn reports whether a user is currently logged in.
func (h *Holder) LoggedIn() bool {
	_, ok := h.CurrentUser()

	return ok
}

// Since returns the time of the last LogIn, or false when nobody is logged in.
func (h *Holder) Since() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.current == nil {
		return time.Time{}, false
	}

	return h.since, true
}

// LogOut clears the current user. Logging out twice is the same as logging out once.
func (h *Holder) LogOut() {
	h.Detach()
}

// Detach clears the current user and returns the user that was logged in together
// with its login time, in one step. ok is false if nobody was logged in.
func (h *Holder) Detach() (user *domain.User, since time.Time, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	user, since, ok = h.current, h.since, h.current != nil
	h.current = nil
	h.since = time.Time{}

	return user, since, ok
}

// Replace swaps old for user if old is still the current user, keeping the login time.
// It reports whether the swap happened; a logout or another login in between wins.
func (h *Holder) Replace(old, user *domain.User) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old == nil || h.current != old {
		return false
	}

	h.current = user

	return true
}

func (h *Holder) clock() time.Time {
	if h.now == nil {
		return time.Now()
	}

	return h.now()
}
