package delivery

import (
	"errors"
	"fmt"
)

// Delivery errors
var (
	ErrFilesystemUnavailable = errors.New("cannot access filesystem")
	ErrPermissionDenied      = errors.New("filesystem permission denied")
	ErrDirectoryCreateFailed = errors.New("failed to create export directory")
	ErrArtifactNotFound      = errors.New("file not found")
	ErrShareFailed           = errors.New("failed to share export")
	ErrResourceCreateFailed  = errors.New("failed to create download resource")
	ErrResourceNotFound      = errors.New("download resource not found")
)

// ErrHandleCancelled is returned when the user dismisses the file picker
var ErrHandleCancelled = fmt.Errorf("file selection cancelled: %w", ErrPermissionDenied)
