package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// listenAndSignal holds a LISTEN connection on the given channel and nudges
// signalCh whenever a notification arrives. The send is non-blocking; a full
// channel means the workers are already awake. Reconnects on any failure.
func listenAndSignal(ctx context.Context, dsn, channel string, signalCh chan<- struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}

		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect for LISTEN", "channel", channel, "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		conn, err := pool.Acquire(ctx)
		if err != nil {
			slog.Error("failed to acquire connection for LISTEN", "channel", channel, "error", err)
			pool.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
			slog.Error("failed to LISTEN", "channel", channel, "error", err)
			conn.Release()
			pool.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		slog.Info("listening for queue notifications", "channel", channel)

		for {
			if ctx.Err() != nil {
				conn.Release()
				pool.Close()
				return
			}

			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() == nil {
					slog.Error("wait for notification failed", "channel", channel, "error", err)
				}
				conn.Release()
				pool.Close()
				break
			}

			select {
			case signalCh <- struct{}{}:
			default:
			}
		}
	}
}
