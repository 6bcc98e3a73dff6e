package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// NativeStrategy saves the artifact into a file the user picks
type NativeStrategy struct {
	picker FileHandlePicker
	logger *zap.Logger
}

// NewNativeStrategy creates a new native save strategy
func NewNativeStrategy(picker FileHandlePicker, logger *zap.Logger) *NativeStrategy {
	return &NativeStrategy{
		picker: picker,
		logger: logger,
	}
}

// Name returns the strategy name
func (s *NativeStrategy) Name() string {
	return StrategyNative
}

// Prepare acquires the file handle before the export is dispatched
func (s *NativeStrategy) Prepare(ctx context.Context, target Target) (Delivery, error) {
	handle, err := s.picker.Pick(ctx, SaveOptions{
		SuggestedName: target.Filename,
		Description:   target.Filename,
		Extensions:    []string{entity.SpreadsheetExtension},
		MIMETypes:     []string{entity.SpreadsheetMIMEType},
	})
	if err != nil {
		s.logger.Error("Failed to acquire file handle",
			zap.String("filename", target.Filename),
			zap.Error(err))
		if errors.Is(err, ErrPermissionDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFilesystemUnavailable, err)
	}
	if handle == nil {
		s.logger.Error("File picker returned no handle", zap.String("filename", target.Filename))
		return nil, ErrFilesystemUnavailable
	}

	return func(ctx context.Context, artifact *entity.Artifact) error {
		return s.write(ctx, handle, artifact)
	}, nil
}

// write streams the artifact through a write session that is always closed
func (s *NativeStrategy) write(ctx context.Context, handle FileHandle, artifact *entity.Artifact) (err error) {
	session, err := handle.CreateWriter(ctx)
	if err != nil {
		s.logger.Error("Failed to open write session",
			zap.String("file", handle.Name()),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.Error("Failed to close write session",
				zap.String("file", handle.Name()),
				zap.Error(cerr))
			if err == nil {
				err = fmt.Errorf("%w: close: %w", ErrFilesystemUnavailable, cerr)
			}
		}
	}()

	if err := session.Write(0, artifact.Data); err != nil {
		s.logger.Error("Failed to write export",
			zap.String("file", handle.Name()),
			zap.Error(err))
		return fmt.Errorf("%w: write: %w", ErrFilesystemUnavailable, err)
	}

	s.logger.Info("Export saved",
		zap.String("file", handle.Name()),
		zap.Int("size", artifact.Size()))

	return nil
}
