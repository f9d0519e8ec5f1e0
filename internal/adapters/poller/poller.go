// Package poller is a change feed that polls the store revision counter.
// It serves backends without file events, and SQLite on filesystems where
// fsnotify is unavailable.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/taskly/internal/ports/secondary"
)

// RevisionSource reports the store's write counter.
type RevisionSource interface {
	Revision(ctx context.Context) (int64, error)
}

// Poller calls onChange whenever the revision differs from the last one seen.
type Poller struct {
	source   RevisionSource
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Poller. Non-positive intervals default to two seconds.
func New(source RevisionSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{source: source, interval: interval, logger: logger}
}

// Run blocks until ctx is done. Read errors are logged and polling goes on.
func (p *Poller) Run(ctx context.Context, onChange func()) error {
	last, err := p.source.Revision(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read store revision", "error", err)
	}
	known := err == nil

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rev, err := p.source.Revision(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.WarnContext(ctx, "failed to read store revision", "error", err)
				continue
			}
			if known && rev == last {
				continue
			}
			changed := known
			last, known = rev, true
			if changed {
				p.logger.DebugContext(ctx, "store revision changed", "revision", rev)
				onChange()
			}
		}
	}
}

var _ secondary.ChangeFeed = (*Poller)(nil)
