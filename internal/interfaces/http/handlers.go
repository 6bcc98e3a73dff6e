package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tietracker/tiexport/internal/delivery"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/tietracker/tiexport/internal/export"
	"github.com/tietracker/tiexport/internal/repository"
	"github.com/tietracker/tiexport/internal/spreadsheet"
	"github.com/tietracker/tiexport/internal/worker"
	"github.com/tietracker/tiexport/pkg/utils"
	"go.uber.org/zap"
)

// Exporter runs the export pipeline for a named strategy
type Exporter interface {
	Export(ctx context.Context, strategy string, p export.Params) (*export.Result, error)
}

// ProjectReader loads the project an export is requested for
type ProjectReader interface {
	GetByID(ctx context.Context, id string) (*entity.Project, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	exporter        Exporter
	projects        ProjectReader
	defaultCurrency string
	location        *time.Location
	check           func(ctx context.Context) error
	logger          *zap.Logger
}

// NewHandlers creates a new Handlers instance. Days are parsed in loc.
func NewHandlers(exporter Exporter, projects ProjectReader, defaultCurrency string, loc *time.Location, logger *zap.Logger) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{
		exporter:        exporter,
		projects:        projects,
		defaultCurrency: defaultCurrency,
		location:        loc,
		logger:          logger,
	}
}

// WithHealthCheck makes GET /health report check failures as unavailable
func (h *Handlers) WithHealthCheck(check func(ctx context.Context) error) *Handlers {
	h.check = check
	return h
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ExportRequest is the JSON body of every export endpoint
type ExportRequest struct {
	ProjectID string   `json:"project_id" binding:"required"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Currency  string   `json:"currency"`
	VAT       *float64 `json:"vat"`
	Billable  bool     `json:"billable"`
}

// ExportResponse describes a completed export
type ExportResponse struct {
	RequestID string   `json:"request_id"`
	Strategy  string   `json:"strategy"`
	Filename  string   `json:"filename"`
	Days      []string `json:"days"`
	Size      int      `json:"size"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.check != nil {
		if err := h.check(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data: HealthResponse{
					Status:    "unhealthy",
					Timestamp: time.Now().UTC().Format(time.RFC3339),
				},
				Error: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ExportDownload handles POST /api/v1/exports/download and streams the xlsx
func (h *Handlers) ExportDownload(c *gin.Context) {
	params, ok := h.bind(c)
	if !ok {
		return
	}

	params.Trigger = delivery.TriggerFunc(func(ctx context.Context, link *delivery.Link) error {
		res, err := link.Open()
		if err != nil {
			return err
		}
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": link.Filename}))
		c.Header("Content-Length", strconv.Itoa(len(res.Data)))
		c.Data(http.StatusOK, link.MIMEType, res.Data)
		return nil
	})

	if _, err := h.exporter.Export(c.Request.Context(), delivery.StrategyDownload, params); err != nil {
		if c.Writer.Written() {
			h.logger.Error("Export failed after response was written", zap.Error(err))
			return
		}
		h.fail(c, err)
	}
}

// ExportFileSystem handles POST /api/v1/exports/filesystem
func (h *Handlers) ExportFileSystem(c *gin.Context) {
	h.exportJSON(c, delivery.StrategyNative)
}

// ExportMobile handles POST /api/v1/exports/mobile
func (h *Handlers) ExportMobile(c *gin.Context) {
	h.exportJSON(c, delivery.StrategyMobile)
}

func (h *Handlers) exportJSON(c *gin.Context, strategy string) {
	params, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), strategy, params)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ExportResponse{
			RequestID: result.RequestID,
			Strategy:  result.Strategy,
			Filename:  result.Filename,
			Days:      result.Days,
			Size:      result.Size,
		},
	})
}

// bind validates the request body and loads the project. It writes the error response itself.
func (h *Handlers) bind(c *gin.Context) (export.Params, bool) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid export request", zap.Error(err))
		h.respondError(c, http.StatusBadRequest, "invalid request body")
		return export.Params{}, false
	}

	from, err := utils.ParseDay(req.From, entity.DayLayout, h.location)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return export.Params{}, false
	}
	to, err := utils.ParseDay(req.To, entity.DayLayout, h.location)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return export.Params{}, false
	}

	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}
	if err := utils.ValidateCurrencyCode(currency); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return export.Params{}, false
	}

	if req.VAT != nil {
		if err := utils.ValidateVATRate(*req.VAT); err != nil {
			h.respondError(c, http.StatusBadRequest, err.Error())
			return export.Params{}, false
		}
	}

	project, err := h.projects.GetByID(c.Request.Context(), req.ProjectID)
	if err != nil {
		h.fail(c, err)
		return export.Params{}, false
	}

	invoice := entity.NewInvoice(project)
	invoice.From, invoice.To = from, to

	return export.Params{
		Invoice:  invoice,
		From:     from,
		To:       to,
		Currency: entity.Currency{Code: currency},
		VATRate:  req.VAT,
		Billable: req.Billable,
	}, true
}

func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	h.respondError(c, statusFor(err), err.Error())
}

func (h *Handlers) respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{
		Success: false,
		Error:   msg,
	})
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, export.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, spreadsheet.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrEmptyRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, delivery.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrWorkerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, worker.ErrWorkerTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
