package responses

import (
	"time"

	"jan-server/services/image-api/internal/domain/session"
)

// SessionResponse is a session with its derived status.
type SessionResponse struct {
	ID        string          `json:"id"`
	AppName   string          `json:"app_name"`
	UserID    string          `json:"user_id"`
	Status    session.Status  `json:"status"`
	TurnCount int             `json:"turn_count"`
	State     map[string]any  `json:"state,omitempty"`
	Events    []session.Event `json:"events,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionListResponse is returned by the session list endpoint.
type SessionListResponse struct {
	Total    int               `json:"total"`
	Sessions []SessionResponse `json:"sessions"`
}

// NewSessionResponse maps a session. Events and state are only included when withDetail is set.
func NewSessionResponse(s *session.Session, withDetail bool) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID,
		AppName:   s.AppName,
		UserID:    s.UserID,
		Status:    s.Status(),
		TurnCount: s.TurnCount(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if withDetail {
		resp.State = s.State
		resp.Events = s.Events
	}
	return resp
}

func NewSessionListResponse(sessions []*session.Session) SessionListResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionResponse(s, false))
	}
	return SessionListResponse{Total: len(out), Sessions: out}
}
