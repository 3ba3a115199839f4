package changefeed

import (
	"context"
	"time"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/logger"

	"github.com/lib/pq"
)

// Listener implements ports.OrderEventSource on a dedicated lib/pq
// connection that reconnects on its own.
type Listener struct {
	dsn         string
	minInterval time.Duration
	maxInterval time.Duration
	pingEvery   time.Duration
	log         *logger.Logger
}

func NewListener(dsn string, log *logger.Logger) *Listener {
	return &Listener{
		dsn:         dsn,
		minInterval: 100 * time.Millisecond,
		maxInterval: 10 * time.Second,
		pingEvery:   90 * time.Second,
		log:         log,
	}
}

// Run delivers events to sink until ctx is cancelled. Undecodable payloads
// are logged and skipped.
func (l *Listener) Run(ctx context.Context, sink func(ports.OrderEvent)) error {
	listener := pq.NewListener(l.dsn, l.minInterval, l.maxInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn(ctx, "order event listener connection event", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return err
	}
	l.log.Info(ctx, "listening for order events")

	ping := time.NewTicker(l.pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent meanwhile are lost
			if n == nil {
				continue
			}
			e, err := Decode([]byte(n.Extra))
			if err != nil {
				l.log.Warn(ctx, "dropping malformed order event", err)
				continue
			}
			sink(e)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.log.Warn(ctx, "order event listener ping failed", err)
				}
			}()
		}
	}
}
