package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tietracker/tiexport/internal/delivery"
	"go.uber.org/zap"
)

// Sandbox is an app-private filesystem with one root directory per scope
type Sandbox struct {
	roots  map[delivery.DirectoryScope]*LocalFileStorage
	logger *zap.Logger
}

// NewSandbox creates a sandbox over the given scope roots
func NewSandbox(roots map[delivery.DirectoryScope]string, logger *zap.Logger) *Sandbox {
	s := &Sandbox{
		roots:  make(map[delivery.DirectoryScope]*LocalFileStorage, len(roots)),
		logger: logger,
	}
	for scope, dir := range roots {
		if dir != "" {
			s.roots[scope] = NewLocalFileStorage(dir, logger)
		}
	}
	return s
}

// Stat describes path within scope. Absent paths return an error wrapping fs.ErrNotExist.
func (s *Sandbox) Stat(ctx context.Context, path string, scope delivery.DirectoryScope) (*delivery.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(path, scope)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &delivery.FileInfo{
		Path:  path,
		Scope: scope,
		URI:   fileURI(fullPath),
		Size:  info.Size(),
		IsDir: info.IsDir(),
	}, nil
}

// Mkdir creates path within scope. Without recursive the parent must exist.
func (s *Sandbox) Mkdir(ctx context.Context, path string, scope delivery.DirectoryScope, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(path, scope)
	if err != nil {
		return err
	}

	if recursive {
		err = os.MkdirAll(fullPath, 0755)
	} else {
		err = os.Mkdir(fullPath, 0755)
	}
	if err != nil {
		s.logger.Error("Failed to create sandbox directory",
			zap.String("path", path),
			zap.String("scope", string(scope)),
			zap.Error(err))
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	s.logger.Debug("Sandbox directory created",
		zap.String("path", path),
		zap.String("scope", string(scope)))

	return nil
}

// WriteFile writes text data to path, decoding it first when encoding is base64
func (s *Sandbox) WriteFile(ctx context.Context, path, data string, scope delivery.DirectoryScope, encoding delivery.Encoding) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(path, scope)
	if err != nil {
		return err
	}

	var content []byte
	switch encoding {
	case delivery.EncodingBase64:
		content, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case delivery.EncodingUTF8, "":
		content = []byte(data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write sandbox file",
			zap.String("path", path),
			zap.String("scope", string(scope)),
			zap.Error(err))
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Debug("Sandbox file written",
		zap.String("path", path),
		zap.String("scope", string(scope)),
		zap.Int("size", len(content)))

	return nil
}

func (s *Sandbox) resolve(path string, scope delivery.DirectoryScope) (string, error) {
	root, ok := s.roots[scope]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	return root.Resolve(path)
}

func fileURI(fullPath string) string {
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
