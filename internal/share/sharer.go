// Package share implements the share sheet port for headless hosts.
package share

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tietracker/tiexport/internal/delivery"
	"go.uber.org/zap"
)

// Placeholders substituted in command arguments
const (
	PlaceholderSubject = "{subject}"
	PlaceholderTitle   = "{title}"
)

// CommandSharer hands shared files to an external command, e.g. termux-share or xdg-open.
// The file URIs are appended after the configured arguments.
type CommandSharer struct {
	command string
	args    []string
	logger  *zap.Logger
}

// NewCommandSharer creates a sharer running command with args
func NewCommandSharer(command string, args []string, logger *zap.Logger) *CommandSharer {
	return &CommandSharer{
		command: command,
		args:    args,
		logger:  logger,
	}
}

// Share runs the command once for all files
func (s *CommandSharer) Share(ctx context.Context, opts delivery.ShareOptions) error {
	if len(opts.Files) == 0 {
		return fmt.Errorf("%w: no files to share", delivery.ErrShareFailed)
	}

	replacer := strings.NewReplacer(PlaceholderSubject, opts.Subject, PlaceholderTitle, opts.Title)
	args := make([]string, 0, len(s.args)+len(opts.Files))
	for _, a := range s.args {
		args = append(args, replacer.Replace(a))
	}
	args = append(args, opts.Files...)

	cmd := exec.CommandContext(ctx, s.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Error("Share command failed",
			zap.String("command", s.command),
			zap.Strings("args", args),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %w", delivery.ErrShareFailed, s.command, err)
	}

	s.logger.Info("Export shared",
		zap.String("command", s.command),
		zap.String("subject", opts.Subject),
		zap.Int("files", len(opts.Files)))

	return nil
}

// LogSharer records the share request in the log only
type LogSharer struct {
	logger *zap.Logger
}

// NewLogSharer creates a sharer that only logs
func NewLogSharer(logger *zap.Logger) *LogSharer {
	return &LogSharer{logger: logger}
}

// Share logs opts
func (s *LogSharer) Share(ctx context.Context, opts delivery.ShareOptions) error {
	if len(opts.Files) == 0 {
		return fmt.Errorf("%w: no files to share", delivery.ErrShareFailed)
	}
	s.logger.Info("Export ready to share",
		zap.String("subject", opts.Subject),
		zap.String("title", opts.Title),
		zap.Strings("files", opts.Files))
	return nil
}

// New returns a CommandSharer when command is set, otherwise a LogSharer
func New(command string, args []string, logger *zap.Logger) delivery.Sharer {
	if command == "" {
		return NewLogSharer(logger)
	}
	return NewCommandSharer(command, args, logger)
}
