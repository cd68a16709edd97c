package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess, err := store.CreateSession(ctx, "image_app", "user-1", map[string]any{"turn_count": 0})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sess.Status())

	require.NoError(t, store.AppendEvent(ctx, &Event{
		SessionID: sess.ID, AppName: "image_app", UserID: "user-1", Author: "user", Type: EventTurnStarted,
	}))
	got, err := store.GetSession(ctx, "image_app", "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status())
	require.Len(t, got.Events, 1)
	assert.NotEmpty(t, got.Events[0].ID)
	assert.False(t, got.Events[0].CreatedAt.IsZero())

	require.NoError(t, store.AppendEvent(ctx, &Event{
		SessionID: sess.ID, AppName: "image_app", UserID: "user-1", Type: EventTurnFinished, Status: StatusFailed,
		ErrorType: "SynthesisFailure", ErrorMessage: "model unavailable",
	}))
	got, err = store.GetSession(ctx, "image_app", "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status())

	require.NoError(t, store.DeleteSession(ctx, "image_app", "user-1", sess.ID))
	_, err = store.GetSession(ctx, "image_app", "user-1", sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreScopesByUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess, err := store.CreateSession(ctx, "image_app", "user-1", nil)
	require.NoError(t, err)

	_, err = store.GetSession(ctx, "image_app", "user-2", sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = store.AppendEvent(ctx, &Event{SessionID: sess.ID, AppName: "image_app", UserID: "user-2", Type: EventTurnStarted})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	list, err := store.ListSessions(ctx, "image_app", "user-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStoreStateScopes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.CreateSession(ctx, "image_app", "user-1", nil)
	require.NoError(t, err)
	second, err := store.CreateSession(ctx, "image_app", "user-1", nil)
	require.NoError(t, err)

	require.NoError(t, store.UpdateState(ctx, "image_app", "user-1", first.ID, map[string]any{
		"turn_count":          1,
		"user:preferred_size": "1024x1024",
		"app:model":           "flash",
		"temp:scratch":        "dropped",
	}))

	got, err := store.GetSession(ctx, "image_app", "user-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TurnCount())
	assert.Equal(t, "1024x1024", got.State["user:preferred_size"])
	assert.Equal(t, "flash", got.State["app:model"])
	assert.NotContains(t, got.State, "temp:scratch")

	other, err := store.GetSession(ctx, "image_app", "user-1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, other.TurnCount())
	assert.Equal(t, "1024x1024", other.State["user:preferred_size"])
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess, err := store.CreateSession(ctx, "image_app", "user-1", nil)
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.AppendEvent(ctx, &Event{
				SessionID: sess.ID,
				AppName:   "image_app",
				UserID:    "user-1",
				Author:    fmt.Sprintf("writer-%d", i),
				Type:      EventTurnStarted,
			}))
		}(i)
	}
	wg.Wait()

	got, err := store.GetSession(ctx, "image_app", "user-1", sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Events, writers)

	authors := make(map[string]struct{}, writers)
	ids := make(map[string]struct{}, writers)
	for _, e := range got.Events {
		authors[e.Author] = struct{}{}
		ids[e.ID] = struct{}{}
	}
	assert.Len(t, authors, writers)
	assert.Len(t, ids, writers)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  Status
	}{
		{name: "started", event: Event{Type: EventTurnStarted}, want: StatusProcessing},
		{name: "finished completed", event: Event{Type: EventTurnFinished, Status: StatusCompleted}, want: StatusCompleted},
		{name: "finished failed", event: Event{Type: EventTurnFinished, Status: StatusFailed}, want: StatusFailed},
		{name: "finished without status", event: Event{Type: EventTurnFinished}, want: StatusCompleted},
		{name: "blocked", event: Event{Type: EventBlocked}, want: StatusBlocked},
		{name: "unknown", event: Event{Type: "other"}, want: StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.event))
		})
	}
	assert.Equal(t, StatusPending, (*Session)(nil).Status())
}

func TestApplyDeltaIncrement(t *testing.T) {
	state := map[string]any{"turn_count": float64(2), "title": "old"}
	ApplyDelta(state, map[string]any{"turn_count": Increment(1), "title": "new", "visits": Increment(3)})

	assert.Equal(t, 3, state["turn_count"])
	assert.Equal(t, "new", state["title"])
	assert.Equal(t, 3, state["visits"])
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess, err := store.CreateSession(ctx, "image_app", "user-1", map[string]any{"turn_count": 0})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.UpdateState(ctx, "image_app", "user-1", sess.ID, map[string]any{"turn_count": Increment(1)}))
		}()
	}
	wg.Wait()

	got, err := store.GetSession(ctx, "image_app", "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, got.TurnCount())
}
