package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/image-api/internal/utils/platformerrors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code,omitempty"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError aborts with the status mapped from err. Untyped errors become a
// 500 carrying fallback as the message; their detail stays in the log.
func HandleError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		abortWith(c, http.StatusInternalServerError, "", fallback, "")
		return
	}

	message := platformErr.Message
	if message == "" {
		message = fallback
	}
	abortWith(c, platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), platformErr.UUID, message, platformErr.RequestID)
}

// HandleNewError aborts with a route-layer error of errorType.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string, code string) {
	err := platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, code)
	_ = c.Error(err)
	abortWith(c, platformerrors.ErrorTypeToHTTPStatus(errorType), err.UUID, message, err.RequestID)
}

func abortWith(c *gin.Context, status int, code, message, requestID string) {
	if requestID == "" {
		requestID = platformerrors.RequestIDFromContext(c.Request.Context())
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Error:     message,
		Message:   message,
		RequestID: requestID,
	})
}
