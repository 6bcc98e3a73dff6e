// Package cli implements the tiexport command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tietracker/tiexport/internal/config"
	"github.com/tietracker/tiexport/internal/container"
	"github.com/tietracker/tiexport/pkg/utils"
	"go.uber.org/zap"
)

// app holds the state shared by the subcommands of one invocation
type app struct {
	configPath string
	container  *container.Container
	logger     *zap.Logger
}

// NewRootCmd builds the tiexport command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tiexport",
		Short: "Export Tie Tracker time entries to spreadsheets",
		Long: "tiexport builds xlsx invoices from recorded time entries and delivers them\n" +
			"to a chosen folder, a downloads folder or the app sandbox with a share step.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config file (YAML)")

	root.AddCommand(newExportCmd(a))
	root.AddCommand(newClientCmd(a))
	root.AddCommand(newProjectCmd(a))
	root.AddCommand(newTaskCmd(a))

	return root
}

// Execute runs the root command with os.Args
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// open loads configuration and starts the container. The caller must call close.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: loggerOutput(cfg.Logger.OutputPath),
		Format:     cfg.Logger.Format,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(cmd.Context()); err != nil {
		return err
	}
	a.container = c
	return nil
}

func (a *app) close() {
	if a.container != nil {
		if err := a.container.Close(); err != nil {
			a.logger.Error("Failed to close container", zap.Error(err))
		}
		a.container = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// loggerOutput keeps stdout free for command output
func loggerOutput(path string) string {
	if path == "" || path == "stdout" {
		return "stderr"
	}
	return path
}

// withApp wraps a RunE so the container is open for its duration
func withApp(a *app, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args)
	}
}
