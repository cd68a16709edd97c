package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/interfaces/httpserver/responses"
)

// SessionHandler exposes the caller's agent sessions.
type SessionHandler struct {
	store   session.Store
	appName string
	log     zerolog.Logger
}

func NewSessionHandler(store session.Store, appName string, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		store:   store,
		appName: appName,
		log:     log.With().Str("handler", "session").Logger(),
	}
}

// List godoc
// @Summary      List sessions
// @Description  Lists the caller's sessions, most recently updated first, with their derived status.
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  responses.SessionListResponse
// @Security     BearerAuth
// @Router       /v1/agent/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sessions, err := h.store.ListSessions(c.Request.Context(), h.appName, userID)
	if err != nil {
		responses.HandleError(c, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, responses.NewSessionListResponse(sessions))
}

// Get godoc
// @Summary      Get session
// @Description  Returns a session with its state and event log.
// @Tags         sessions
// @Produce      json
// @Param        session_id  path      string  true  "Session id"
// @Success      200         {object}  responses.SessionResponse
// @Failure      404         {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/sessions/{session_id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sess, err := h.store.GetSession(c.Request.Context(), h.appName, userID, c.Param("session_id"))
	if err != nil {
		responses.HandleError(c, err, "session not found")
		return
	}
	c.JSON(http.StatusOK, responses.NewSessionResponse(sess, true))
}

// Delete godoc
// @Summary      Delete session
// @Description  Removes a session and its event log. Generated assets are kept.
// @Tags         sessions
// @Produce      json
// @Param        session_id  path      string  true  "Session id"
// @Success      200         {object}  map[string]interface{}
// @Failure      404         {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/sessions/{session_id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if err := h.store.DeleteSession(c.Request.Context(), h.appName, userID, sessionID); err != nil {
		responses.HandleError(c, err, "failed to delete session")
		return
	}
	h.log.Info().Str("session_id", sessionID).Str("user_id", userID).Msg("session deleted")
	c.JSON(http.StatusOK, gin.H{"id": sessionID, "deleted": true})
}
