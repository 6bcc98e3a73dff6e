package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tietracker/tiexport/internal/delivery"
	"go.uber.org/zap"
)

// DirectoryTrigger retrieves download links into a downloads directory
type DirectoryTrigger struct {
	storage *LocalFileStorage
	logger  *zap.Logger
}

// NewDirectoryTrigger creates a trigger saving into dir
func NewDirectoryTrigger(dir string, logger *zap.Logger) *DirectoryTrigger {
	return &DirectoryTrigger{
		storage: NewLocalFileStorage(dir, logger),
		logger:  logger,
	}
}

// Trigger copies the linked resource to a file named after the link
func (t *DirectoryTrigger) Trigger(ctx context.Context, link *delivery.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := link.Open()
	if err != nil {
		return err
	}

	path, err := t.storage.SaveFile(filepath.Base(link.Filename), res.Data)
	if err != nil {
		return fmt.Errorf("save download: %w", err)
	}

	t.logger.Info("Download saved",
		zap.String("url", link.URL),
		zap.String("path", path))

	return nil
}
