package entity

// Spreadsheet output constants
const (
	SpreadsheetExtension = "xlsx"
	SpreadsheetMIMEType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DayLayout is the calendar-day key format used to correlate task entries
const DayLayout = "2006-01-02"

// Worker message tags
const (
	MessageTagExport       = "export"
	MessageTagExportDone   = "export_done"
	MessageTagExportFailed = "export_failed"
)
