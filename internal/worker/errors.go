package worker

import "errors"

// Export worker errors
var (
	ErrWorkerFailure  = errors.New("export worker failed")
	ErrWorkerTimeout  = errors.New("export worker timed out")
	ErrWorkerStopped  = errors.New("export worker stopped")
	ErrQueueFull      = errors.New("export worker queue is full")
	ErrTicketConsumed = errors.New("export artifact already consumed")
)
