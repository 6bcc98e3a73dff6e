package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tietracker/tiexport/internal/delivery"
	"go.uber.org/zap"
)

// ConfirmFunc approves the file about to be written. Returning false cancels the save.
type ConfirmFunc func(path string) bool

// DirectoryPicker grants file handles inside a fixed directory, named after the suggestion
type DirectoryPicker struct {
	storage   *LocalFileStorage
	overwrite bool
	confirm   ConfirmFunc
	logger    *zap.Logger
}

// NewDirectoryPicker creates a picker writing into dir. Existing files are only
// replaced when overwrite is set. A nil confirm approves every file.
func NewDirectoryPicker(dir string, overwrite bool, confirm ConfirmFunc, logger *zap.Logger) *DirectoryPicker {
	return &DirectoryPicker{
		storage:   NewLocalFileStorage(dir, logger),
		overwrite: overwrite,
		confirm:   confirm,
		logger:    logger,
	}
}

// Pick returns a handle for opts.SuggestedName inside the picker directory
func (p *DirectoryPicker) Pick(ctx context.Context, opts delivery.SaveOptions) (delivery.FileHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.storage.BaseDir() == "" {
		return nil, fmt.Errorf("%w: no save directory configured", delivery.ErrFilesystemUnavailable)
	}

	name := filepath.Base(opts.SuggestedName)
	if opts.SuggestedName == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: empty file name", delivery.ErrHandleCancelled)
	}

	fullPath, err := p.storage.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", delivery.ErrPermissionDenied, err)
	}

	if !p.overwrite {
		if _, err := os.Stat(fullPath); err == nil {
			p.logger.Info("Refusing to overwrite existing file", zap.String("path", fullPath))
			return nil, fmt.Errorf("%w: %s already exists", delivery.ErrHandleCancelled, name)
		}
	}

	if p.confirm != nil && !p.confirm(fullPath) {
		p.logger.Info("File save cancelled", zap.String("path", fullPath))
		return nil, delivery.ErrHandleCancelled
	}

	if err := os.MkdirAll(p.storage.BaseDir(), 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", delivery.ErrFilesystemUnavailable, err)
	}

	return &fileHandle{path: fullPath, overwrite: p.overwrite, logger: p.logger}, nil
}

type fileHandle struct {
	path      string
	overwrite bool
	logger    *zap.Logger
}

func (h *fileHandle) Name() string {
	return filepath.Base(h.path)
}

// CreateWriter stages writes in a temp file that replaces the target on a clean close
func (h *fileHandle) CreateWriter(ctx context.Context) (delivery.WriteSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), "."+h.Name()+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to open writer: %w", err)
	}

	return &fileSession{file: tmp, target: h.path, overwrite: h.overwrite, logger: h.logger}, nil
}

type fileSession struct {
	file      *os.File
	target    string
	overwrite bool
	failed    bool
	closed    bool
	logger    *zap.Logger
}

func (s *fileSession) Write(offset int64, data []byte) error {
	if s.closed {
		return os.ErrClosed
	}
	if _, err := s.file.WriteAt(data, offset); err != nil {
		s.failed = true
		return err
	}
	return nil
}

// Close commits the staged file, or discards it after a failed write
func (s *fileSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	tmpPath := s.file.Name()
	if err := s.file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if s.failed {
		return os.Remove(tmpPath)
	}

	if err := s.commit(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	s.logger.Debug("File committed", zap.String("path", s.target))
	return nil
}

// commit moves the staged file onto the target. Without overwrite a hard link
// claims the target atomically, so a file created since Pick is never replaced.
func (s *fileSession) commit(tmpPath string) error {
	if s.overwrite {
		return os.Rename(tmpPath, s.target)
	}

	if err := os.Link(tmpPath, s.target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			s.logger.Info("Refusing to overwrite existing file", zap.String("path", s.target))
			return fmt.Errorf("%w: %s already exists", delivery.ErrHandleCancelled, filepath.Base(s.target))
		}
		return err
	}
	return os.Remove(tmpPath)
}
