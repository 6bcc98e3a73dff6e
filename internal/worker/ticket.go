package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tietracker/tiexport/internal/domain/entity"
)

// Ticket is the one-shot completion of a dispatched export request
type Ticket struct {
	id    string
	done  chan struct{}
	once  sync.Once
	timer *time.Timer

	mu       sync.Mutex
	artifact *entity.Artifact
	err      error
	taken    bool
}

func newTicket(id string) *Ticket {
	return &Ticket{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the correlation id of the request
func (t *Ticket) ID() string {
	return t.id
}

// Done is closed once the request has completed or failed
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the worker answers or ctx ends.
// The artifact is handed out once; later calls return ErrTicketConsumed.
func (t *Ticket) Wait(ctx context.Context) (*entity.Artifact, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}
	if t.taken {
		return nil, ErrTicketConsumed
	}
	t.taken = true
	artifact := t.artifact
	t.artifact = nil
	return artifact, nil
}

func (t *Ticket) complete(resp Response) {
	t.once.Do(func() {
		t.mu.Lock()
		if resp.Tag == entity.MessageTagExportDone {
			t.artifact = resp.Artifact
		} else {
			t.err = resp.Err
			if t.err == nil {
				t.err = ErrWorkerFailure
			}
		}
		t.mu.Unlock()
		close(t.done)
	})
}
