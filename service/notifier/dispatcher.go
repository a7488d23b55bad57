package notifier

import (
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain/order"
)

var met = metrics.New("notifier")

type DispatcherCfg struct {
	Workers         int           `mapstructure:"workers"`
	QueueLength     int           `mapstructure:"queuelength"`
	ScheduleTimeout time.Duration `mapstructure:"scheduletimeout"`
}

// Dispatcher fans every event out to its sinks on a worker pool. Notify never blocks on a sink.
type Dispatcher struct {
	pool    *goroutines.Pool
	timeout time.Duration
	sinks   []order.Notifier
}

func NewDispatcher(cfg DispatcherCfg, sinks ...order.Notifier) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.QueueLength <= 0 {
		cfg.QueueLength = 1024
	}
	if cfg.ScheduleTimeout <= 0 {
		cfg.ScheduleTimeout = 3 * time.Second
	}
	return &Dispatcher{
		pool:    goroutines.NewPool(cfg.Workers, goroutines.WithTaskQueueLength(cfg.QueueLength)),
		timeout: cfg.ScheduleTimeout,
		sinks:   sinks,
	}
}

func (d *Dispatcher) Notify(c ctx.Ctx, e *order.Event) error {
	// detach from the request so a finished http call does not cancel delivery
	bg := ctx.WithFields(ctx.Background(), log.Fields{"orderId": e.OrderId, "event": e.Type})
	for _, sink := range d.sinks {
		s := sink
		if err := d.pool.ScheduleWithTimeout(d.timeout, func() {
			defer met.BumpTime("notify.time", "event", string(e.Type)).End()
			if err := s.Notify(bg, e); err != nil {
				met.BumpSum("notify.err", 1, "event", string(e.Type))
				bg.WithField("err", err).Warn("sink.Notify failed")
			}
		}); err != nil {
			c.WithFields(log.Fields{"err": err, "orderId": e.OrderId}).Error("pool.ScheduleWithTimeout failed")
			return err
		}
	}
	return nil
}

// Close waits for queued notifications
func (d *Dispatcher) Close() {
	d.pool.Release()
}
