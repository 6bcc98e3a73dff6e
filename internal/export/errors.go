package export

import "errors"

// Precondition errors raised before anything is dispatched to the worker
var (
	ErrInvalidInput    = errors.New("no invoice data")
	ErrEmptyRange      = errors.New("no invoices to export")
	ErrUnknownStrategy = errors.New("unknown delivery strategy")
)
