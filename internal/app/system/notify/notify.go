// internal/app/system/notify/notify.go

// Package notify implements best-effort notification fan-out. A batch of
// notifications is sent with bounded concurrency; individual failures are
// logged and counted, never propagated, so a committed state transition can't
// be rolled back by a broken notification sink.
package notify

import (
	"context"

	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink persists a single notification. Implemented by the notifications store.
type Sink interface {
	Create(ctx context.Context, n models.Notification) error
}

// Result reports how a fan-out batch went.
type Result struct {
	Sent   int
	Failed int
}

// FanOut sends every notification in the batch through the sink, at most
// maxConcurrent at a time. It always waits for the whole batch and never
// returns an error: per-item failures are logged with the addressee and
// reflected in the result counts.
func FanOut(ctx context.Context, sink Sink, batch []models.Notification, maxConcurrent int, log *zap.Logger) Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	results := make([]bool, len(batch))

	g := &errgroup.Group{}
	g.SetLimit(maxConcurrent)
	for i, n := range batch {
		g.Go(func() error {
			if err := sink.Create(ctx, n); err != nil {
				log.Warn("notification send failed",
					zap.String("user_id", n.UserID.Hex()),
					zap.String("type", n.Type),
					zap.Error(err))
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for _, ok := range results {
		if ok {
			res.Sent++
		} else {
			res.Failed++
		}
	}
	return res
}
