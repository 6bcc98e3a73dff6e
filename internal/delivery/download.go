package delivery

import (
	"context"
	"fmt"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// DownloadStrategy exposes the artifact as a transient resource and triggers its retrieval
type DownloadStrategy struct {
	registry *ResourceRegistry
	trigger  Trigger
	logger   *zap.Logger
}

// NewDownloadStrategy creates a new download strategy. trigger is the default
// used when the target carries none.
func NewDownloadStrategy(registry *ResourceRegistry, trigger Trigger, logger *zap.Logger) *DownloadStrategy {
	return &DownloadStrategy{
		registry: registry,
		trigger:  trigger,
		logger:   logger,
	}
}

// Name returns the strategy name
func (s *DownloadStrategy) Name() string {
	return StrategyDownload
}

// Prepare selects the trigger; nothing is acquired before the worker completes
func (s *DownloadStrategy) Prepare(ctx context.Context, target Target) (Delivery, error) {
	trigger := s.trigger
	if target.Trigger != nil {
		trigger = target.Trigger
	}
	if trigger == nil {
		return nil, fmt.Errorf("%w: no download trigger configured", ErrResourceCreateFailed)
	}

	return func(ctx context.Context, artifact *entity.Artifact) error {
		return s.download(ctx, trigger, target.Filename, artifact)
	}, nil
}

func (s *DownloadStrategy) download(ctx context.Context, trigger Trigger, filename string, artifact *entity.Artifact) error {
	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = entity.SpreadsheetMIMEType
	}

	url, err := s.registry.Create(artifact.Data, mimeType, filename)
	if err != nil {
		s.logger.Error("Failed to create download resource",
			zap.String("filename", filename),
			zap.Error(err))
		return err
	}

	link := &Link{
		URL:      url,
		Filename: filename,
		MIMEType: mimeType,
		registry: s.registry,
	}

	defer func() {
		s.registry.Revoke(url)
		link.registry = nil
	}()

	if err := trigger.Trigger(ctx, link); err != nil {
		s.logger.Error("Failed to trigger download",
			zap.String("filename", filename),
			zap.Error(err))
		return fmt.Errorf("download trigger failed: %w", err)
	}

	s.logger.Info("Export downloaded",
		zap.String("filename", filename),
		zap.Int("size", artifact.Size()))

	return nil
}
