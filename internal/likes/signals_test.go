package likes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/motorplace/internal/likes"
)

func TestConnectivitySignalPublishesTransitions(t *testing.T) {
	sig := likes.NewConnectivitySignal(true)
	ch, cancel := sig.Subscribe()

	sig.Set(true) // no transition
	sig.Set(false)

	assert.False(t, <-ch)
	assert.False(t, sig.Online())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestSessionStateSubscribe(t *testing.T) {
	s := likes.NewSessionState("")
	_, ok := s.UserID()
	assert.False(t, ok)

	ch, cancel := s.Subscribe()
	defer cancel()

	s.SignIn("user-a")
	assert.Equal(t, "user-a", <-ch)

	// slow subscribers only see the latest value
	s.SignIn("user-b")
	s.SignOut()
	assert.Equal(t, "", <-ch)

	id, ok := s.UserID()
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to likes.State
		ok       bool
	}{
		{likes.StateIdle, likes.StatePending, true},
		{likes.StateIdle, likes.StateCommitted, false},
		{likes.StatePending, likes.StateCommitted, true},
		{likes.StatePending, likes.StateRolledBack, true},
		{likes.StatePending, likes.StateIdle, false},
		{likes.StateCommitted, likes.StateIdle, true},
		{likes.StateRolledBack, likes.StateIdle, true},
		{likes.StateRolledBack, likes.StateCommitted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.Equal(t, "rolled_back", likes.StateRolledBack.String())
}
