// Package export coordinates spreadsheet exports: it validates the selection,
// resolves the day range, dispatches generation to the export worker and
// hands the resulting artifact to a delivery strategy.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/tietracker/tiexport/internal/delivery"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/tietracker/tiexport/internal/i18n"
	"github.com/tietracker/tiexport/internal/worker"
	"go.uber.org/zap"
)

// Dispatcher posts export requests to the background worker
type Dispatcher interface {
	Send(req *entity.ExportRequest) (*worker.Ticket, error)
}

// Params are the caller inputs of one export
type Params struct {
	Invoice  *entity.Invoice
	From     *time.Time
	To       *time.Time
	Currency entity.Currency
	VATRate  *float64
	Billable bool

	// Trigger optionally overrides the download trigger for this call
	Trigger delivery.Trigger
}

// Result describes a completed export
type Result struct {
	RequestID string
	Strategy  string
	Filename  string
	Days      []string
	Size      int
}

// Service is the single entry surface of the export pipeline
type Service struct {
	dispatcher Dispatcher
	localizer  i18n.Localizer
	resolver   *Resolver
	strategies map[string]delivery.Strategy
	logger     *zap.Logger
}

// NewService creates a new export service
func NewService(
	dispatcher Dispatcher,
	localizer i18n.Localizer,
	resolver *Resolver,
	logger *zap.Logger,
	strategies ...delivery.Strategy,
) *Service {
	if resolver == nil {
		resolver = NewResolver()
	}

	byName := make(map[string]delivery.Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}

	return &Service{
		dispatcher: dispatcher,
		localizer:  localizer,
		resolver:   resolver,
		strategies: byName,
		logger:     logger,
	}
}

// ExportToFileSystem saves the export into a user-selected file
func (s *Service) ExportToFileSystem(ctx context.Context, p Params) (*Result, error) {
	return s.Export(ctx, delivery.StrategyNative, p)
}

// ExportAsDownload serves the export as a transient download
func (s *Service) ExportAsDownload(ctx context.Context, p Params) (*Result, error) {
	return s.Export(ctx, delivery.StrategyDownload, p)
}

// ExportToMobileAndShare writes the export into the app sandbox and shares it
func (s *Service) ExportToMobileAndShare(ctx context.Context, p Params) (*Result, error) {
	return s.Export(ctx, delivery.StrategyMobile, p)
}

// Export runs the pipeline for the named delivery strategy. It returns once
// the artifact has been delivered, or with the first failure.
func (s *Service) Export(ctx context.Context, strategyName string, p Params) (*Result, error) {
	strategy, ok := s.strategies[strategyName]
	if !ok {
		s.logger.Error("Unknown delivery strategy", zap.String("strategy", strategyName))
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyName)
	}

	if p.Invoice == nil || p.Invoice.ProjectID == nil || *p.Invoice.ProjectID == "" {
		s.logger.Error("Export rejected: no invoice data", zap.String("strategy", strategyName))
		return nil, ErrInvalidInput
	}
	projectID := *p.Invoice.ProjectID

	days, ok := s.resolver.Resolve(p.From, p.To)
	if !ok {
		s.logger.Error("Export rejected: empty range",
			zap.String("strategy", strategyName),
			zap.String("project_id", projectID))
		return nil, ErrEmptyRange
	}

	filename := Filename(p.Invoice, p.From, p.To)

	deliver, err := strategy.Prepare(ctx, delivery.Target{
		Filename: filename,
		Invoice:  p.Invoice,
		Trigger:  p.Trigger,
	})
	if err != nil {
		s.logger.Error("Failed to prepare delivery",
			zap.String("strategy", strategyName),
			zap.String("filename", filename),
			zap.Error(err))
		return nil, fmt.Errorf("prepare %s delivery: %w", strategyName, err)
	}

	req := &entity.ExportRequest{
		ProjectID:   projectID,
		Client:      p.Invoice.Client,
		InvoiceDays: days,
		Currency:    p.Currency,
		VATRate:     p.VATRate,
		Billable:    p.Billable,
		Labels:      ExportLabels(s.localizer),
	}

	ticket, err := s.dispatcher.Send(req)
	if err != nil {
		s.logger.Error("Failed to dispatch export",
			zap.String("strategy", strategyName),
			zap.String("project_id", projectID),
			zap.Error(err))
		return nil, fmt.Errorf("dispatch export: %w", err)
	}

	artifact, err := ticket.Wait(ctx)
	if err != nil {
		s.logger.Error("Export generation failed",
			zap.String("strategy", strategyName),
			zap.String("request_id", ticket.ID()),
			zap.Error(err))
		return nil, fmt.Errorf("generate export: %w", err)
	}

	size := artifact.Size()
	if err := deliver(ctx, artifact); err != nil {
		s.logger.Error("Export delivery failed",
			zap.String("strategy", strategyName),
			zap.String("request_id", ticket.ID()),
			zap.String("filename", filename),
			zap.Error(err))
		return nil, fmt.Errorf("deliver export: %w", err)
	}

	s.logger.Info("Export completed",
		zap.String("strategy", strategyName),
		zap.String("request_id", ticket.ID()),
		zap.String("filename", filename),
		zap.Int("days", len(days)),
		zap.Int("size", size))

	return &Result{
		RequestID: ticket.ID(),
		Strategy:  strategyName,
		Filename:  filename,
		Days:      days,
		Size:      size,
	}, nil
}
