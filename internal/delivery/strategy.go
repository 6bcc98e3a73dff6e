// Package delivery routes a generated export artifact to its destination.
package delivery

import (
	"context"

	"github.com/tietracker/tiexport/internal/domain/entity"
)

// Strategy names
const (
	StrategyNative   = "native"
	StrategyDownload = "download"
	StrategyMobile   = "mobile"
)

// Target describes where and under which name an export is delivered
type Target struct {
	Filename string
	Invoice  *entity.Invoice

	// Trigger overrides the download strategy's default trigger for one call
	Trigger Trigger
}

// Delivery consumes the artifact once the worker has produced it
type Delivery func(ctx context.Context, artifact *entity.Artifact) error

// Strategy prepares a destination before dispatch and returns the step that
// consumes the artifact after completion
type Strategy interface {
	Name() string
	Prepare(ctx context.Context, target Target) (Delivery, error)
}
