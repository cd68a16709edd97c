package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"jan-server/services/image-api/utils/idgen"
)

type appUserKey struct {
	appName string
	userID  string
}

// MemoryStore keeps sessions in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	appState  map[string]map[string]any
	userState map[appUserKey]map[string]any
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*Session),
		appState:  make(map[string]map[string]any),
		userState: make(map[appUserKey]map[string]any),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) CreateSession(ctx context.Context, appName, userID string, state map[string]any) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sess := &Session{
		ID:        idgen.NewSessionID(),
		AppName:   appName,
		UserID:    userID,
		State:     map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[sess.ID] = sess
	m.applyStateLocked(sess, state)

	return m.snapshotLocked(sess), nil
}

func (m *MemoryStore) GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.lookupLocked(appName, userID, sessionID)
	if !ok {
		return nil, NotFound(ctx, sessionID)
	}
	return m.snapshotLocked(sess), nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, appName, userID string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0)
	for _, sess := range m.sessions {
		if sess.AppName == appName && sess.UserID == userID {
			out = append(out, m.snapshotLocked(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookupLocked(appName, userID, sessionID); !ok {
		return NotFound(ctx, sessionID)
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) AppendEvent(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.lookupLocked(event.AppName, event.UserID, event.SessionID)
	if !ok {
		return NotFound(ctx, event.SessionID)
	}
	if event.ID == "" {
		event.ID = idgen.NewEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = m.now()
	}
	sess.Events = append(sess.Events, cloneEvent(*event))
	sess.UpdatedAt = event.CreatedAt
	return nil
}

func (m *MemoryStore) UpdateState(ctx context.Context, appName, userID, sessionID string, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.lookupLocked(appName, userID, sessionID)
	if !ok {
		return NotFound(ctx, sessionID)
	}
	m.applyStateLocked(sess, delta)
	sess.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) lookupLocked(appName, userID, sessionID string) (*Session, bool) {
	sess, ok := m.sessions[sessionID]
	if !ok || sess.AppName != appName || sess.UserID != userID {
		return nil, false
	}
	return sess, true
}

func (m *MemoryStore) applyStateLocked(sess *Session, delta map[string]any) {
	app, user, own := SplitState(delta)
	ApplyDelta(sess.State, own)
	if len(app) > 0 {
		target := m.appState[sess.AppName]
		if target == nil {
			target = map[string]any{}
			m.appState[sess.AppName] = target
		}
		ApplyDelta(target, app)
	}
	if len(user) > 0 {
		key := appUserKey{appName: sess.AppName, userID: sess.UserID}
		target := m.userState[key]
		if target == nil {
			target = map[string]any{}
			m.userState[key] = target
		}
		ApplyDelta(target, user)
	}
}

// snapshotLocked returns a copy so callers never share maps or slices with the store.
func (m *MemoryStore) snapshotLocked(sess *Session) *Session {
	events := make([]Event, len(sess.Events))
	for i, e := range sess.Events {
		events[i] = cloneEvent(e)
	}
	return &Session{
		ID:      sess.ID,
		AppName: sess.AppName,
		UserID:  sess.UserID,
		State: MergeState(
			m.appState[sess.AppName],
			m.userState[appUserKey{appName: sess.AppName, userID: sess.UserID}],
			sess.State,
		),
		Events:    events,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

func cloneEvent(e Event) Event {
	if e.Payload != nil {
		payload := make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			payload[k] = v
		}
		e.Payload = payload
	}
	return e
}
