package session

import (
	"context"
	"errors"
	"fmt"

	"jan-server/services/image-api/internal/utils/platformerrors"
)

// ErrSessionNotFound is returned when a session does not exist for the caller.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions and their event logs.
type Store interface {
	CreateSession(ctx context.Context, appName, userID string, state map[string]any) (*Session, error)
	GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	ListSessions(ctx context.Context, appName, userID string) ([]*Session, error)
	DeleteSession(ctx context.Context, appName, userID, sessionID string) error
	// AppendEvent assigns the event id and timestamp when they are empty.
	AppendEvent(ctx context.Context, event *Event) error
	// UpdateState merges delta into the scoped state of the session.
	UpdateState(ctx context.Context, appName, userID, sessionID string, delta map[string]any) error
}

// NotFound builds the error every store returns for a missing session.
func NotFound(ctx context.Context, sessionID string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("session %s not found", sessionID), ErrSessionNotFound, "b5f4d179-90c8-434e-827a-2e4a0cd3a57b")
}
