package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/session"
)

func newUser(id int64, name string) *domain.User {
	return &domain.User{ID: id, Username: name, Email: name + "@example.com"}
}

func TestDefault_ReturnsSameInstance(t *testing.T) {
	t.Parallel()

	first := session.Default()
	require.NotNil(t, first)

	for range 10 {
		assert.Same(t, first, session.Default())
	}
}

func TestDefault_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	var (
		wg      sync.WaitGroup
		holders = make([]*session.Holder, 32)
	)

	for i := range holders {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			holders[i] = session.Default()
		}(i)
	}

	wg.Wait()

	for _, h := range holders {
		assert.Same(t, holders[0], h)
	}
}

func TestNew_StartsLoggedOut(t *testing.T) {
	t.Parallel()

	h := session.New()

	user, ok := h.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, user)
	assert.False(t, h.LoggedIn())

	var zero session.Holder

	user, ok = zero.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestHolder_LogIn(t *testing.T) {
	t.Parallel()

	h := session.New()
	alice := newUser(1, "alice")

	h.LogIn(alice)

	user, ok := h.CurrentUser()
	require.True(t, ok)
	assert.Same(t, alice, user)

	// reads do not change the state
	user, ok = h.CurrentUser()
	require.True(t, ok)
	assert.Same(t, alice, user)
}

func TestHolder_LogIn_LastWriteWins(t *testing.T) {
	t.Parallel()

	h := session.New()
	alice, bob := newUser(1, "alice"), newUser(2, "bob")

	h.LogIn(alice)
	h.LogIn(bob)

	user, ok := h.CurrentUser()
	require.True(t, ok)
	assert.Same(t, bob, user)
}

func TestHolder_LogIn_Nil(t *testing.T) {
	t.Parallel()

	h := session.New()
	h.LogIn(newUser(1, "alice"))
	h.LogIn(nil)

	user, ok := h.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestHolder_LogOut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(h *session.Holder)
	}{
		{
			name:  "when logged out",
			setup: func(*session.Holder) {},
		},
		{
			name:  "when logged in",
			setup: func(h *session.Holder) { h.LogIn(newUser(1, "alice")) },
		},
		{
			name: "twice",
			setup: func(h *session.Holder) {
				h.LogIn(newUser(1, "alice"))
				h.LogOut()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := session.New()
			tt.setup(h)

			h.LogOut()

			user, ok := h.CurrentUser()
			assert.False(t, ok)
			assert.Nil(t, user)

			_, ok = h.Since()
			assert.False(t, ok)
		})
	}
}

func TestHolder_Detach(t *testing.T) {
	t.Parallel()

	loginTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := session.New().WithClock(func() time.Time { return loginTime })
	alice := newUser(1, "alice")

	_, _, ok := h.Detach()
	assert.False(t, ok)

	h.LogIn(alice)

	since, ok := h.Since()
	require.True(t, ok)
	assert.Equal(t, loginTime, since)

	user, since, ok := h.Detach()
	require.True(t, ok)
	assert.Same(t, alice, user)
	assert.Equal(t, loginTime, since)
	assert.False(t, h.LoggedIn())

	_, _, ok = h.Detach()
	assert.False(t, ok)
}

func TestHolder_Scenario(t *testing.T) {
	t.Parallel()

	h := session.New()
	userA, userB := newUser(1, "a"), newUser(2, "b")

	_, ok := h.CurrentUser()
	assert.False(t, ok)

	h.LogIn(userA)
	user, _ := h.CurrentUser()
	assert.Same(t, userA, user)

	h.LogIn(userB)
	user, _ = h.CurrentUser()
	assert.Same(t, userB, user)

	h.LogOut()
	_, ok = h.CurrentUser()
	assert.False(t, ok)
}

func TestHolder_Concurrent(t *testing.T) {
	t.Parallel()

	h := session.New()
	users := make([]*domain.User, 16)

	for i := range users {
		users[i] = newUser(int64(i+1), "player")
	}

	var wg sync.WaitGroup

	for i, u := range users {
		wg.Add(3)

		go func() {
			defer wg.Done()
			h.LogIn(u)
		}()

		go func() {
			defer wg.Done()

			if current, ok := h.CurrentUser(); ok {
				assert.Contains(t, users, current)
			}
		}()

		go func() {
			defer wg.Done()

			if i%4 == 0 {
				h.LogOut()
			}
		}()
	}

	wg.Wait()

	if current, ok := h.CurrentUser(); ok {
		assert.Contains(t, users, current)
	}
}

func TestHolder_Replace(t *testing.T) {
	t.Parallel()

	alice, bob := newUser(1, "alice"), newUser(2, "bob")
	refreshed := newUser(1, "alice")

	tests := []struct {
		name    string
		setup   func(h *session.Holder)
		old     *domain.User
		want    bool
		current *domain.User
	}{
		{
			name:    "replaces current user",
			setup:   func(h *session.Holder) { h.LogIn(alice) },
			old:     alice,
			want:    true,
			current: refreshed,
		},
		{
			name:    "keeps newer login",
			setup:   func(h *session.Holder) { h.LogIn(alice); h.LogIn(bob) },
			old:     alice,
			want:    false,
			current: bob,
		},
		{
			name:  "keeps logout",
			setup: func(h *session.Holder) { h.LogIn(alice); h.LogOut() },
			old:   alice,
			want:  false,
		},
		{
			name:  "nil old never matches",
			setup: func(*session.Holder) {},
			old:   nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := session.New()
			tt.setup(h)

			assert.Equal(t, tt.want, h.Replace(tt.old, refreshed))

			current, _ := h.CurrentUser()
			assert.Same(t, tt.current, current)
		})
	}
}
