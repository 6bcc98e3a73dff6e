package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// Generator turns an export request into spreadsheet bytes
type Generator interface {
	Generate(ctx context.Context, req *entity.ExportRequest) ([]byte, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req *entity.ExportRequest) ([]byte, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req *entity.ExportRequest) ([]byte, error) {
	return f(ctx, req)
}

// ExportWorkerConfig holds export worker configuration
type ExportWorkerConfig struct {
	QueueSize int           // Default: 16
	Timeout   time.Duration // Default: 2 minutes; 0 disables
}

// DefaultExportWorkerConfig returns default export worker configuration
func DefaultExportWorkerConfig() ExportWorkerConfig {
	return ExportWorkerConfig{
		QueueSize: 16,
		Timeout:   2 * time.Minute,
	}
}

// ExportWorkerStatus reports current worker status
type ExportWorkerStatus struct {
	IsRunning      bool
	Pending        int
	Dispatched     int64
	CompletedCount int64
	FailedCount    int64
	UpSince        time.Duration
}

// ExportWorker is the single background unit generating export spreadsheets.
// Requests are processed one at a time in FIFO order; responses are routed
// back to their Ticket by correlation id.
type ExportWorker struct {
	generator Generator
	config    ExportWorkerConfig
	logger    *zap.Logger

	inbox  chan Message
	outbox chan Response

	mu             sync.Mutex
	pending        map[string]*Ticket
	isRunning      bool
	stopped        bool
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startTime      time.Time
	dispatched     int64
	completedCount int64
	failedCount    int64
}

// NewExportWorker creates a new export worker
func NewExportWorker(generator Generator, config ExportWorkerConfig, logger *zap.Logger) *ExportWorker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultExportWorkerConfig().QueueSize
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	return &ExportWorker{
		generator: generator,
		config:    config,
		logger:    logger,
		inbox:     make(chan Message, config.QueueSize),
		outbox:    make(chan Response, config.QueueSize),
		pending:   make(map[string]*Ticket),
	}
}

// Name returns the worker name
func (w *ExportWorker) Name() string {
	return "export-worker"
}

// Start launches the generation and routing loops
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWorkerStopped
	}
	if w.isRunning {
		return fmt.Errorf("export worker is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.isRunning = true
	w.startTime = time.Now()

	w.wg.Add(2)
	go w.run(ctx)
	go w.route(ctx)

	w.logger.Info("Export worker started",
		zap.Int("queue_size", w.config.QueueSize),
		zap.Duration("timeout", w.config.Timeout))

	return nil
}

// Stop terminates the loops and rejects every pending request
func (w *ExportWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	orphans := w.pending
	w.pending = make(map[string]*Ticket)
	w.isRunning = false
	w.mu.Unlock()

	for id, t := range orphans {
		if t.timer != nil {
			t.timer.Stop()
		}
		t.complete(failedResponse(id, ErrWorkerStopped))
	}

	w.logger.Info("Export worker stopped", zap.Int("rejected_pending", len(orphans)))
}

// Send dispatches a request without blocking and returns its completion ticket
func (w *ExportWorker) Send(req *entity.ExportRequest) (*Ticket, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrWorkerFailure)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil, ErrWorkerStopped
	}

	id := uuid.NewString()
	msg := Message{
		Tag:     entity.MessageTagExport,
		ID:      id,
		Request: req.Clone(),
	}
	msg.Request.ID = id

	ticket := newTicket(id)

	select {
	case w.inbox <- msg:
	default:
		w.logger.Warn("Export worker queue is full",
			zap.String("project_id", req.ProjectID),
			zap.Int("queue_size", w.config.QueueSize))
		return nil, ErrQueueFull
	}

	w.pending[id] = ticket
	if w.config.Timeout > 0 {
		ticket.timer = time.AfterFunc(w.config.Timeout, func() {
			w.logger.Error("Export request timed out",
				zap.String("request_id", id),
				zap.Duration("timeout", w.config.Timeout))
			w.resolve(failedResponse(id, ErrWorkerTimeout))
		})
	}
	w.dispatched++

	w.logger.Debug("Export request dispatched",
		zap.String("request_id", id),
		zap.String("project_id", req.ProjectID),
		zap.Int("days", len(req.InvoiceDays)))

	return ticket, nil
}

// GetStatus returns the current worker status
func (w *ExportWorker) GetStatus() ExportWorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := ExportWorkerStatus{
		IsRunning:      w.isRunning,
		Pending:        len(w.pending),
		Dispatched:     w.dispatched,
		CompletedCount: w.completedCount,
		FailedCount:    w.failedCount,
	}
	if w.isRunning {
		status.UpSince = time.Since(w.startTime)
	}
	return status
}

// run consumes the inbox one message at a time
func (w *ExportWorker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.inbox:
			if !w.isPending(msg.ID) {
				w.logger.Debug("Skipping abandoned export request", zap.String("request_id", msg.ID))
				continue
			}

			resp := w.process(ctx, msg)

			select {
			case w.outbox <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

// route delivers responses to the ticket with the matching id
func (w *ExportWorker) route(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case resp := <-w.outbox:
			w.resolve(resp)
		}
	}
}

// process runs the generator, converting errors and panics into failure responses
func (w *ExportWorker) process(ctx context.Context, msg Message) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error("Export generator panicked",
				zap.String("request_id", msg.ID),
				zap.Any("panic", p))
			resp = failedResponse(msg.ID, fmt.Errorf("%w: panic: %v", ErrWorkerFailure, p))
		}
	}()

	if msg.Tag != entity.MessageTagExport {
		return failedResponse(msg.ID, fmt.Errorf("%w: unsupported message tag %q", ErrWorkerFailure, msg.Tag))
	}

	genCtx := ctx
	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := w.generator.Generate(genCtx, msg.Request)
	if err != nil {
		w.logger.Error("Export generation failed",
			zap.String("request_id", msg.ID),
			zap.String("project_id", msg.Request.ProjectID),
			zap.Error(err))
		return failedResponse(msg.ID, fmt.Errorf("%w: %w", ErrWorkerFailure, err))
	}
	if len(data) == 0 {
		w.logger.Error("Export generation produced an empty artifact", zap.String("request_id", msg.ID))
		return failedResponse(msg.ID, fmt.Errorf("%w: empty artifact", ErrWorkerFailure))
	}

	w.logger.Info("Export generated",
		zap.String("request_id", msg.ID),
		zap.Int("size", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return doneResponse(msg.ID, &entity.Artifact{
		RequestID: msg.ID,
		MIMEType:  entity.SpreadsheetMIMEType,
		Data:      data,
	})
}

// resolve completes and forgets the ticket for resp.ID. Late responses for
// requests that already timed out are dropped.
func (w *ExportWorker) resolve(resp Response) {
	w.mu.Lock()
	ticket, ok := w.pending[resp.ID]
	if ok {
		delete(w.pending, resp.ID)
		if resp.Tag == entity.MessageTagExportDone {
			w.completedCount++
		} else {
			w.failedCount++
		}
	}
	w.mu.Unlock()

	if !ok {
		w.logger.Warn("Dropping response for unknown export request",
			zap.String("request_id", resp.ID),
			zap.String("tag", resp.Tag))
		return
	}

	if ticket.timer != nil {
		ticket.timer.Stop()
	}
	ticket.complete(resp)
}

func (w *ExportWorker) isPending(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[id]
	return ok
}
