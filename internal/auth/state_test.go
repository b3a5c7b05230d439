package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmap/healthmap/internal/models"
)

func TestStateSubscribe(t *testing.T) {
	state := NewState()

	var got []SessionState
	unsubscribe := state.Subscribe(func(s SessionState) {
		got = append(got, s)
	})

	require.Len(t, got, 1, "current snapshot delivered on subscribe")
	assert.False(t, got[0].Authenticated)

	user := &models.AuthUser{ID: 5, Email: "a@x.com", Role: models.RoleMember}
	state.Set(user)
	require.Len(t, got, 2)
	assert.True(t, got[1].Authenticated)
	assert.Equal(t, "a@x.com", got[1].User.Email)

	unsubscribe()
	state.Set(nil)
	assert.Len(t, got, 2)
	assert.False(t, state.Snapshot().Authenticated)
}

func TestStateCopiesUser(t *testing.T) {
	state := NewState()
	user := &models.AuthUser{ID: 5, Email: "a@x.com", Role: models.RoleMember}
	state.Set(user)

	user.Role = models.RoleAdmin
	assert.Equal(t, models.RoleMember, state.Snapshot().User.Role)
}

func TestSubscriberDropsOlderSnapshot(t *testing.T) {
	var got []SessionState
	sub := &subscriber{fn: func(s SessionState) { got = append(got, s) }}

	newer := &versioned{state: SessionState{Authenticated: true, User: &models.AuthUser{ID: 5}}, seq: 3}
	older := &versioned{state: SessionState{}, seq: 2}

	// A concurrent Set can reach the subscriber before its initial snapshot
	sub.deliver(newer)
	sub.deliver(older)
	sub.deliver(newer)

	require.Len(t, got, 1)
	assert.True(t, got[0].Authenticated)
}

func TestSubscribeDuringSetEndsOnLatest(t *testing.T) {
	state := NewState()
	user := &models.AuthUser{ID: 5, Email: "a@x.com", Role: models.RoleMember}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				state.Set(user)
			} else {
				state.Set(nil)
			}
		}
	}()

	var mu sync.Mutex
	var last SessionState
	unsubscribe := state.Subscribe(func(s SessionState) {
		mu.Lock()
		last = s
		mu.Unlock()
	})
	defer unsubscribe()

	wg.Wait()
	state.Set(user)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, state.Snapshot(), last)
}
