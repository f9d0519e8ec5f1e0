package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/ports/secondary"
)

// Listener is a change feed fed by LISTEN/NOTIFY on ChangeChannel.
// One notification is sent per written statement; onChange is called for each.
type Listener struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewListener creates a Listener over pool.
func NewListener(pool *pgxpool.Pool, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{pool: pool, logger: logger}
}

// Run holds one pooled connection in LISTEN mode until ctx is done.
func (l *Listener) Run(ctx context.Context, onChange func()) error {
	c, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer c.Release()

	if _, err := c.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}
	l.logger.DebugContext(ctx, "listening for store changes", "channel", ChangeChannel)

	for {
		n, err := c.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		l.logger.DebugContext(ctx, "store change notified", "channel", n.Channel, "pid", n.PID)
		onChange()
	}
}

var _ secondary.ChangeFeed = (*Listener)(nil)
