package generation

import (
	"context"
	"errors"

	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

var (
	ErrValidation           = errors.New("invalid generation request")
	ErrRefinementIncomplete = errors.New("refinement stream ended without a final response")
	ErrRefinementFailed     = errors.New("prompt refinement failed")
	ErrSynthesisFailure     = errors.New("image synthesis failed")
	ErrCancelledWorkflow    = errors.New("generation workflow cancelled")

	// Re-exported so callers can match every workflow error kind from one package.
	ErrSessionNotFound     = session.ErrSessionNotFound
	ErrNotOwner            = asset.ErrNotOwner
	ErrPersistenceConflict = asset.ErrPersistenceConflict
	ErrStorageUpload       = asset.ErrStorageUpload
)

// KindName returns the name recorded in a failure event for err.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelledWorkflow), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CancelledWorkflow"
	case errors.Is(err, ErrValidation), errors.Is(err, asset.ErrUnsupportedImage):
		return "ValidationError"
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFoundError"
	case errors.Is(err, ErrRefinementIncomplete):
		return "RefinementIncompleteError"
	case errors.Is(err, ErrRefinementFailed):
		return "RefinementFailure"
	case errors.Is(err, ErrSynthesisFailure):
		return "SynthesisFailure"
	case errors.Is(err, ErrStorageUpload):
		return "StorageUploadFailure"
	case errors.Is(err, ErrPersistenceConflict):
		return "PersistenceConflict"
	case errors.Is(err, ErrNotOwner):
		return "NotOwnerError"
	case errors.Is(err, asset.ErrAssetNotFound):
		return "AssetNotFoundError"
	default:
		return "InternalError"
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCancelledWorkflow)
}

func validationError(ctx context.Context, message, code string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, ErrValidation, code)
}

func cancelledError(ctx context.Context, stage string, cause error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCancelled,
		"generation cancelled during "+stage, errors.Join(ErrCancelledWorkflow, cause), "c6a5e28a-a1d9-445f-938b-3f5b1de4b68c")
}
