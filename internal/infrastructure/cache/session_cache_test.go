package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/image-api/internal/domain/session"
)

const app = "image_app"

type countingStore struct {
	*session.MemoryStore
	gets atomic.Int32
}

func (c *countingStore) GetSession(ctx context.Context, appName, userID, sessionID string) (*session.Session, error) {
	c.gets.Add(1)
	return c.MemoryStore.GetSession(ctx, appName, userID, sessionID)
}

// gatedStore pauses the next GetSession after it has read its snapshot.
type gatedStore struct {
	*countingStore
	mu      sync.Mutex
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetSession(ctx context.Context, appName, userID, sessionID string) (*session.Session, error) {
	sess, err := g.countingStore.GetSession(ctx, appName, userID, sessionID)

	g.mu.Lock()
	read, release := g.read, g.release
	g.read, g.release = nil, nil
	g.mu.Unlock()
	if read != nil {
		close(read)
		<-release
	}
	return sess, err
}

func (g *gatedStore) pauseNextRead() (read <-chan struct{}, release chan<- struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.read, g.release = make(chan struct{}), make(chan struct{})
	return g.read, g.release
}

func newRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newCachedStore(t *testing.T) (*SessionStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newRedis(t)
	inner := &countingStore{MemoryStore: session.NewMemoryStore()}
	return NewSessionStore(inner, client, time.Minute, zerolog.Nop()), inner, mr
}

func TestSessionStoreReadThrough(t *testing.T) {
	store, inner, mr := newCachedStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, app, "user-1", map[string]any{"turn_count": 1})
	require.NoError(t, err)

	first, err := store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)
	second, err := store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, inner.gets.Load())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.TurnCount())
	assert.True(t, mr.Exists(sessionKey(app, "user-1", sess.ID)))
	assert.Equal(t, time.Minute, mr.TTL(sessionKey(app, "user-1", sess.ID)))
}

func TestSessionStoreWritesInvalidate(t *testing.T) {
	store, inner, mr := newCachedStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, app, "user-1", nil)
	require.NoError(t, err)
	_, err = store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)

	require.NoError(t, store.AppendEvent(ctx, &session.Event{
		SessionID: sess.ID, AppName: app, UserID: "user-1",
		Type: session.EventTurnStarted, Status: session.StatusProcessing,
	}))
	assert.False(t, mr.Exists(sessionKey(app, "user-1", sess.ID)))

	got, err := store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusProcessing, got.Status())
	assert.EqualValues(t, 2, inner.gets.Load())

	require.NoError(t, store.UpdateState(ctx, app, "user-1", sess.ID, map[string]any{"turn_count": 2}))
	got, err = store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TurnCount())

	require.NoError(t, store.DeleteSession(ctx, app, "user-1", sess.ID))
	_, err = store.GetSession(ctx, app, "user-1", sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStoreUserScopeInvalidatesSiblings(t *testing.T) {
	store, _, mr := newCachedStore(t)
	ctx := context.Background()

	a, err := store.CreateSession(ctx, app, "user-1", nil)
	require.NoError(t, err)
	b, err := store.CreateSession(ctx, app, "user-1", nil)
	require.NoError(t, err)
	_, err = store.GetSession(ctx, app, "user-1", a.ID)
	require.NoError(t, err)
	_, err = store.GetSession(ctx, app, "user-1", b.ID)
	require.NoError(t, err)

	require.NoError(t, store.UpdateState(ctx, app, "user-1", b.ID, map[string]any{"user:favourite": "gta"}))
	assert.False(t, mr.Exists(sessionKey(app, "user-1", a.ID)))

	got, err := store.GetSession(ctx, app, "user-1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "gta", got.State["user:favourite"])
}

func TestSessionStoreFallsBackWhenRedisIsDown(t *testing.T) {
	store, inner, mr := newCachedStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, app, "user-1", nil)
	require.NoError(t, err)

	mr.Close()

	got, err := store.GetSession(ctx, app, "user-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.EqualValues(t, 1, inner.gets.Load())
}

func TestSessionStoreDoesNotCacheSnapshotOlderThanAWrite(t *testing.T) {
	tests := []struct {
		name  string
		write func(ctx context.Context, store *SessionStore, sessionID string) error
		check func(t *testing.T, got *session.Session)
	}{
		{
			name: "event appended during read",
			write: func(ctx context.Context, store *SessionStore, sessionID string) error {
				return store.AppendEvent(ctx, &session.Event{
					SessionID: sessionID, AppName: app, UserID: "user-1",
					Type: session.EventTurnFinished, Status: session.StatusCompleted,
				})
			},
			check: func(t *testing.T, got *session.Session) {
				require.Len(t, got.Events, 1)
				assert.Equal(t, session.StatusCompleted, got.Status())
			},
		},
		{
			name: "state updated during read",
			write: func(ctx context.Context, store *SessionStore, sessionID string) error {
				return store.UpdateState(ctx, app, "user-1", sessionID, map[string]any{"turn_count": session.Increment(1)})
			},
			check: func(t *testing.T, got *session.Session) {
				assert.Equal(t, 1, got.TurnCount())
			},
		},
		{
			name: "user scope updated from another session during read",
			write: func(ctx context.Context, store *SessionStore, _ string) error {
				other, err := store.CreateSession(ctx, app, "user-1", nil)
				if err != nil {
					return err
				}
				return store.UpdateState(ctx, app, "user-1", other.ID, map[string]any{"user:favourite": "polaroid"})
			},
			check: func(t *testing.T, got *session.Session) {
				assert.Equal(t, "polaroid", got.State["user:favourite"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mr := newRedis(t)
			inner := &gatedStore{countingStore: &countingStore{MemoryStore: session.NewMemoryStore()}}
			store := NewSessionStore(inner, client, time.Hour, zerolog.Nop())
			ctx := context.Background()

			sess, err := store.CreateSession(ctx, app, "user-1", map[string]any{"turn_count": 0})
			require.NoError(t, err)

			read, release := inner.pauseNextRead()
			done := make(chan *session.Session)
			go func() {
				got, err := store.GetSession(ctx, app, "user-1", sess.ID)
				assert.NoError(t, err)
				done <- got
			}()

			<-read
			require.NoError(t, tt.write(ctx, store, sess.ID))
			close(release)
			stale := <-done
			assert.Empty(t, stale.Events)

			assert.False(t, mr.Exists(sessionKey(app, "user-1", sess.ID)), "pre-write snapshot must not be cached")

			got, err := store.GetSession(ctx, app, "user-1", sess.ID)
			require.NoError(t, err)
			tt.check(t, got)
			assert.True(t, mr.Exists(sessionKey(app, "user-1", sess.ID)))
		})
	}
}
