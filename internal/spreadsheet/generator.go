// Package spreadsheet renders time entries of an export request into an xlsx workbook.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrProjectNotFound is returned when the request references an unknown project
var ErrProjectNotFound = errors.New("project not found")

const sheetName = "Tie Tracker"

// ProjectReader loads projects with their client
type ProjectReader interface {
	GetByID(ctx context.Context, id string) (*entity.Project, error)
}

// TaskReader loads task entries for a set of days
type TaskReader interface {
	ListByProjectAndDays(ctx context.Context, projectID string, days []string) ([]*entity.TaskEntry, error)
}

// Generator builds the export workbook
type Generator struct {
	projects ProjectReader
	tasks    TaskReader
	logger   *zap.Logger
}

// NewGenerator creates a new spreadsheet generator
func NewGenerator(projects ProjectReader, tasks TaskReader, logger *zap.Logger) *Generator {
	return &Generator{
		projects: projects,
		tasks:    tasks,
		logger:   logger,
	}
}

// Summary holds the computed totals of an export
type Summary struct {
	BillableHours    float64
	TotalVATExcluded float64
	VATRate          float64
	VAT              float64
	Total            float64
	WithVAT          bool
}

// Generate renders req into xlsx bytes
func (g *Generator) Generate(ctx context.Context, req *entity.ExportRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	project, err := g.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", req.ProjectID, err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectID)
	}

	tasks, err := g.tasks.ListByProjectAndDays(ctx, req.ProjectID, req.InvoiceDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	g.logger.Debug("Rendering export workbook",
		zap.String("request_id", req.ID),
		zap.String("project_id", req.ProjectID),
		zap.Int("days", len(req.InvoiceDays)),
		zap.Int("tasks", len(tasks)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheetName, logger: g.logger}
	if err := w.initStyles(clientColor(req, project), req.Currency); err != nil {
		return nil, err
	}

	row := w.writeHeader(req, project)
	row = w.writeEntries(row, req.Labels, tasks)
	summary := Summarize(tasks, project, req)
	w.writeSummary(row+1, req.Labels, summary, req.Billable)

	if err := f.SetColWidth(sheetName, "A", "A", 40); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "G", 14); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// Summarize computes billable hours and, for billed exports, the amounts
func Summarize(tasks []*entity.TaskEntry, project *entity.Project, req *entity.ExportRequest) Summary {
	var s Summary
	for _, t := range tasks {
		if t.Billable {
			s.BillableHours += t.Duration().Hours()
		}
	}
	s.BillableHours = round2(s.BillableHours)

	if !req.Billable {
		return s
	}

	s.TotalVATExcluded = round2(s.BillableHours * project.HourlyRate)
	s.Total = s.TotalVATExcluded

	if req.VATRate != nil && project.VAT {
		s.WithVAT = true
		s.VATRate = *req.VATRate
		s.VAT = round2(s.TotalVATExcluded * s.VATRate / 100)
		s.Total = round2(s.TotalVATExcluded + s.VAT)
	}

	return s
}

func clientColor(req *entity.ExportRequest, project *entity.Project) string {
	if req.Client != nil && req.Client.Color != "" {
		return req.Client.Color
	}
	if project.Client != nil {
		return project.Client.Color
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sheetWriter writes cells and logs failures instead of aborting mid-sheet
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	logger *zap.Logger

	titleStyle  int
	headerStyle int
	hoursStyle  int
	moneyStyle  int
}

func (w *sheetWriter) initStyles(color string, currency entity.Currency) error {
	titleFont := &excelize.Font{Bold: true, Size: 14}
	if c := strings.TrimPrefix(color, "#"); c != "" {
		titleFont.Color = strings.ToUpper(c)
	}

	var err error
	if w.titleStyle, err = w.f.NewStyle(&excelize.Style{Font: titleFont}); err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	if w.headerStyle, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	hoursFmt := "0.00"
	if w.hoursStyle, err = w.f.NewStyle(&excelize.Style{CustomNumFmt: &hoursFmt}); err != nil {
		return fmt.Errorf("failed to create hours style: %w", err)
	}
	moneyFmt := moneyFormat(currency)
	if w.moneyStyle, err = w.f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}
	return nil
}

func moneyFormat(currency entity.Currency) string {
	unit := currency.Symbol
	if unit == "" {
		unit = currency.Code
	}
	if unit == "" {
		return "#,##0.00"
	}
	return fmt.Sprintf(`#,##0.00 "%s"`, strings.ReplaceAll(unit, `"`, ""))
}

// writeHeader writes client and project then returns the next free row
func (w *sheetWriter) writeHeader(req *entity.ExportRequest, project *entity.Project) int {
	clientName := ""
	if req.Client != nil {
		clientName = req.Client.Name
	} else if project.Client != nil {
		clientName = project.Client.Name
	}

	w.set(1, 1, clientName)
	w.style(1, 1, w.titleStyle)
	w.set(1, 2, project.Name)
	if len(req.InvoiceDays) > 0 {
		w.set(1, 3, req.InvoiceDays[0]+" - "+req.InvoiceDays[len(req.InvoiceDays)-1])
	}

	return 5
}

var entryColumns = []string{"description", "start_date", "start_time", "end_date", "end_time", "duration", "billable"}

// writeEntries writes the column titles and one row per task; returns the next free row
func (w *sheetWriter) writeEntries(row int, labels map[string]string, tasks []*entity.TaskEntry) int {
	for i, key := range entryColumns {
		w.set(i+1, row, label(labels, key))
		w.style(i+1, row, w.headerStyle)
	}
	row++

	for _, t := range tasks {
		w.set(1, row, t.Description)
		w.set(2, row, t.From.Format(entity.DayLayout))
		w.set(3, row, t.From.Format("15:04"))
		w.set(4, row, t.To.Format(entity.DayLayout))
		w.set(5, row, t.To.Format("15:04"))
		w.set(6, row, round2(t.Duration().Hours()))
		w.style(6, row, w.hoursStyle)
		w.set(7, row, t.Billable)
		row++
	}

	return row
}

func (w *sheetWriter) writeSummary(row int, labels map[string]string, s Summary, billed bool) {
	w.set(1, row, label(labels, "total_billable_hours"))
	w.style(1, row, w.headerStyle)
	w.set(6, row, s.BillableHours)
	w.style(6, row, w.hoursStyle)

	if !billed {
		return
	}

	row++
	w.set(1, row, label(labels, "total_vat_excluded"))
	w.set(6, row, s.TotalVATExcluded)
	w.style(6, row, w.moneyStyle)

	if s.WithVAT {
		row++
		w.set(1, row, label(labels, "vat_rate"))
		w.set(6, row, s.VATRate)

		row++
		w.set(1, row, label(labels, "vat"))
		w.set(6, row, s.VAT)
		w.style(6, row, w.moneyStyle)
	}

	row++
	w.set(1, row, label(labels, "total"))
	w.style(1, row, w.headerStyle)
	w.set(6, row, s.Total)
	w.style(6, row, w.moneyStyle)
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.logger.Warn("Invalid cell coordinates", zap.Int("col", col), zap.Int("row", row), zap.Error(err))
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", w.sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (w *sheetWriter) style(col, row, styleID int) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	if err := w.f.SetCellStyle(w.sheet, cell, cell, styleID); err != nil {
		w.logger.Warn("Failed to set cell style",
			zap.String("sheet", w.sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return key
}
