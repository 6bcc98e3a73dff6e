// Package storage provides the local filesystem adapters behind the export
// delivery ports: a scoped sandbox, a directory-backed file picker and a
// download trigger that lands files in a downloads folder.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalFileStorage writes files below a base directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the storage root
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// Resolve joins name onto the base directory and validates the result
func (s *LocalFileStorage) Resolve(name string) (string, error) {
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(name))
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

// SaveFile writes content to name below the base directory, creating parents
func (s *LocalFileStorage) SaveFile(name string, content []byte) (string, error) {
	fullPath, err := s.Resolve(name)
	if err != nil {
		return "", err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// ValidatePath checks that fullPath stays within the base directory
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("%w: %s", ErrPathEscapesBase, fullPath)
	}

	return nil
}
