package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/infrastructure/metrics"
)

const (
	sessionKeyPrefix = "image-api:session:"
	versionKeyPrefix = "image-api:session-version:"
)

// SessionStore is a read-through cache in front of another session store.
// Reads of a single session are cached; every write invalidates the affected keys.
// Each write also bumps a version counter for the session and for the app or user
// scope it touched. A reader only fills the cache if none of those counters moved
// while it was reading the inner store, so a snapshot taken before a write is never
// cached after it. Cache failures are logged and never fail the request.
type SessionStore struct {
	inner session.Store
	redis *RedisClient
	ttl   time.Duration
	log   zerolog.Logger
}

func NewSessionStore(inner session.Store, redis *RedisClient, ttl time.Duration, log zerolog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		inner: inner,
		redis: redis,
		ttl:   ttl,
		log:   log.With().Str("component", "session-cache").Logger(),
	}
}

func sessionKey(appName, userID, sessionID string) string {
	return sessionKeyPrefix + appName + ":" + userID + ":" + sessionID
}

func sessionVersionKey(appName, userID, sessionID string) string {
	return versionKeyPrefix + "session:" + appName + ":" + userID + ":" + sessionID
}

func userVersionKey(appName, userID string) string {
	return versionKeyPrefix + "user:" + appName + ":" + userID
}

func appVersionKey(appName string) string {
	return versionKeyPrefix + "app:" + appName
}

// versionKeys are the counters that guard the cached copy of one session.
func versionKeys(appName, userID, sessionID string) []string {
	return []string{
		sessionVersionKey(appName, userID, sessionID),
		userVersionKey(appName, userID),
		appVersionKey(appName),
	}
}

func (c *SessionStore) CreateSession(ctx context.Context, appName, userID string, state map[string]any) (*session.Session, error) {
	sess, err := c.inner.CreateSession(ctx, appName, userID, state)
	if err != nil {
		return nil, err
	}
	c.invalidateScopes(ctx, appName, userID, state)
	return sess, nil
}

func (c *SessionStore) GetSession(ctx context.Context, appName, userID, sessionID string) (*session.Session, error) {
	key := sessionKey(appName, userID, sessionID)

	var cached session.Session
	err := c.redis.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RecordSessionCache("hit")
		return &cached, nil
	case errors.Is(err, ErrCacheMiss):
		metrics.RecordSessionCache("miss")
	default:
		metrics.RecordSessionCache("error")
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache read failed")
	}

	guards := versionKeys(appName, userID, sessionID)
	versions, versionErr := c.redis.Versions(ctx, guards...)

	sess, err := c.inner.GetSession(ctx, appName, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if versionErr != nil {
		c.log.Warn().Err(versionErr).Str("session_id", sessionID).Msg("session cache version read failed")
		return sess, nil
	}

	err = c.redis.SetIfVersions(ctx, key, sess, c.ttl, guards, versions)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleWrite):
		metrics.RecordSessionCache("stale")
		c.log.Debug().Str("session_id", sessionID).Msg("session changed during read, not caching")
	default:
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache write failed")
	}
	return sess, nil
}

func (c *SessionStore) ListSessions(ctx context.Context, appName, userID string) ([]*session.Session, error) {
	return c.inner.ListSessions(ctx, appName, userID)
}

func (c *SessionStore) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	err := c.inner.DeleteSession(ctx, appName, userID, sessionID)
	c.invalidate(ctx, appName, userID, sessionID)
	return err
}

func (c *SessionStore) AppendEvent(ctx context.Context, event *session.Event) error {
	err := c.inner.AppendEvent(ctx, event)
	c.invalidate(ctx, event.AppName, event.UserID, event.SessionID)
	return err
}

func (c *SessionStore) UpdateState(ctx context.Context, appName, userID, sessionID string, delta map[string]any) error {
	err := c.inner.UpdateState(ctx, appName, userID, sessionID, delta)
	c.invalidate(ctx, appName, userID, sessionID)
	if err == nil {
		c.invalidateScopes(ctx, appName, userID, delta)
	}
	return err
}

// invalidateScopes drops every cached session that merges the app or user state touched by delta.
func (c *SessionStore) invalidateScopes(ctx context.Context, appName, userID string, delta map[string]any) {
	var touchesApp, touchesUser bool
	for k := range delta {
		touchesApp = touchesApp || strings.HasPrefix(k, session.PrefixApp)
		touchesUser = touchesUser || strings.HasPrefix(k, session.PrefixUser)
	}

	var pattern, version string
	switch {
	case touchesApp:
		pattern, version = sessionKeyPrefix+appName+":*", appVersionKey(appName)
	case touchesUser:
		pattern, version = sessionKeyPrefix+appName+":"+userID+":*", userVersionKey(appName, userID)
	default:
		return
	}

	ctx = context.WithoutCancel(ctx)
	if err := c.redis.BumpVersions(ctx, c.versionTTL(), []string{version}); err != nil {
		c.log.Warn().Err(err).Str("version_key", version).Msg("session cache version bump failed")
	}
	if err := c.redis.DeletePattern(ctx, pattern); err != nil {
		c.log.Warn().Err(err).Str("pattern", pattern).Msg("session cache invalidation failed")
	}
}

// invalidate runs even when the caller's context was cancelled.
func (c *SessionStore) invalidate(ctx context.Context, appName, userID, sessionID string) {
	key := sessionKey(appName, userID, sessionID)
	err := c.redis.BumpVersions(context.WithoutCancel(ctx), c.versionTTL(),
		[]string{sessionVersionKey(appName, userID, sessionID)}, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("session cache invalidation failed")
	}
}

// versionTTL outlives any cached copy the counter guards.
func (c *SessionStore) versionTTL() time.Duration {
	return 2 * c.ttl
}
