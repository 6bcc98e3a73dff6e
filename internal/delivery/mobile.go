package delivery

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"sync"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// MobileConfig holds sandbox and share settings
type MobileConfig struct {
	Folder     string         // Default: tietracker
	Scope      DirectoryScope // Default: DOCUMENTS
	ShareTitle string         // Default: Pick an app
}

// DefaultMobileConfig returns the default mobile configuration
func DefaultMobileConfig() MobileConfig {
	return MobileConfig{
		Folder:     "tietracker",
		Scope:      ScopeDocuments,
		ShareTitle: "Pick an app",
	}
}

// SubjectFunc derives the share subject for an invoice
type SubjectFunc func(invoice *entity.Invoice) string

// MobileStrategy writes the artifact into the app sandbox and opens the share sheet
type MobileStrategy struct {
	fs      Filesystem
	sharer  Sharer
	subject SubjectFunc
	config  MobileConfig
	logger  *zap.Logger

	dirMu sync.Mutex
}

// NewMobileStrategy creates a new mobile save and share strategy
func NewMobileStrategy(fs Filesystem, sharer Sharer, subject SubjectFunc, config MobileConfig, logger *zap.Logger) *MobileStrategy {
	defaults := DefaultMobileConfig()
	if config.Folder == "" {
		config.Folder = defaults.Folder
	}
	if config.Scope == "" {
		config.Scope = defaults.Scope
	}
	if config.ShareTitle == "" {
		config.ShareTitle = defaults.ShareTitle
	}
	if subject == nil {
		subject = func(*entity.Invoice) string { return "Tie Tracker" }
	}

	return &MobileStrategy{
		fs:      fs,
		sharer:  sharer,
		subject: subject,
		config:  config,
		logger:  logger,
	}
}

// Name returns the strategy name
func (s *MobileStrategy) Name() string {
	return StrategyMobile
}

// Prepare ensures the sandbox directory exists before the export is dispatched
func (s *MobileStrategy) Prepare(ctx context.Context, target Target) (Delivery, error) {
	if err := s.ensureDir(ctx); err != nil {
		return nil, err
	}

	return func(ctx context.Context, artifact *entity.Artifact) error {
		return s.writeAndShare(ctx, target, artifact)
	}, nil
}

// ensureDir creates the sandbox folder at most once, non-recursively
func (s *MobileStrategy) ensureDir(ctx context.Context) error {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()

	if info, err := s.fs.Stat(ctx, s.config.Folder, s.config.Scope); err == nil && info != nil && info.IsDir {
		return nil
	}

	if err := s.fs.Mkdir(ctx, s.config.Folder, s.config.Scope, false); err != nil {
		s.logger.Error("Failed to create sandbox directory",
			zap.String("folder", s.config.Folder),
			zap.String("scope", string(s.config.Scope)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDirectoryCreateFailed, err)
	}

	s.logger.Debug("Created sandbox directory",
		zap.String("folder", s.config.Folder),
		zap.String("scope", string(s.config.Scope)))

	return nil
}

func (s *MobileStrategy) writeAndShare(ctx context.Context, target Target, artifact *entity.Artifact) error {
	filePath := path.Join(s.config.Folder, target.Filename)
	content := base64.StdEncoding.EncodeToString(artifact.Data)

	if err := s.fs.WriteFile(ctx, filePath, content, s.config.Scope, EncodingBase64); err != nil {
		s.logger.Error("Failed to write export to sandbox",
			zap.String("path", filePath),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFilesystemUnavailable, err)
	}

	info, err := s.fs.Stat(ctx, filePath, s.config.Scope)
	if err != nil || info == nil || info.URI == "" {
		s.logger.Error("Written export has no shareable URI",
			zap.String("path", filePath),
			zap.Error(err))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
		}
		return ErrArtifactNotFound
	}

	opts := ShareOptions{
		Subject: s.subject(target.Invoice),
		Files:   []string{info.URI},
		Title:   s.config.ShareTitle,
	}
	if err := s.sharer.Share(ctx, opts); err != nil {
		s.logger.Error("Failed to share export",
			zap.String("uri", info.URI),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrShareFailed, err)
	}

	s.logger.Info("Export shared",
		zap.String("uri", info.URI),
		zap.String("subject", opts.Subject))

	return nil
}
