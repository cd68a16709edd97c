package asset

import "errors"

var (
	// ErrAssetNotFound is returned when no active asset matches the lookup.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrNotOwner is returned when the caller does not own the asset it tries to change.
	ErrNotOwner = errors.New("caller does not own the asset")
	// ErrPersistenceConflict marks unique constraint violations such as a duplicate object path.
	ErrPersistenceConflict = errors.New("asset persistence conflict")
	// ErrStorageUpload marks object storage write failures.
	ErrStorageUpload = errors.New("storage upload failed")
)
