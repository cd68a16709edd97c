package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeForbidden, http.StatusForbidden},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeCancelled, http.StatusRequestTimeout},
		{ErrorTypeStorage, http.StatusInternalServerError},
		{ErrorType("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeToHTTPStatus(tt.errorType))
		})
	}
}

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	err := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", nil, "code-1")

	assert.Equal(t, "req-123", err.GetRequestID())
	assert.Equal(t, "code-1", err.GetUUID())
	assert.Contains(t, err.Error(), "bad input")
}

func TestAsErrorKeepsInnerTypeAndSentinel(t *testing.T) {
	sentinel := errors.New("sentinel")
	inner := NewError(context.Background(), LayerRepository, ErrorTypeConflict, "duplicate", sentinel, "code-2")

	wrapped := AsError(context.Background(), LayerDomain, inner, "create asset")
	require.NotNil(t, wrapped)

	assert.Equal(t, ErrorTypeConflict, wrapped.Type)
	assert.Equal(t, "code-2", wrapped.UUID)
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, IsErrorType(wrapped, ErrorTypeConflict))
}

func TestAsErrorNil(t *testing.T) {
	assert.Nil(t, AsError(context.Background(), LayerDomain, nil, "noop"))
}
