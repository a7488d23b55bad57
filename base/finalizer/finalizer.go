package finalizer

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/gomarket/base/backoff"
	"github.com/x-xyz/gomarket/base/counter"
	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/goroutine"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
)

var met = metrics.New("finalizer")

type FinalizerCfg struct {
	Engine order.UseCase
	// Caller is the principal the settlements are issued by
	Caller       domain.Address
	Clock        clock.Clock
	Interval     time.Duration
	BatchSize    int32
	Workers      int
	RetryLimit   int
	BackoffStart time.Duration
	BackoffLimit time.Duration
}

// Finalizer settles started auctions once their deadline has passed
type Finalizer struct {
	engine       order.UseCase
	caller       domain.Address
	clock        clock.Clock
	interval     time.Duration
	batchSize    int32
	workers      int
	retryLimit   int
	backoffStart time.Duration
	backoffLimit time.Duration
	settled      *counter.Counter
	stoppedCh    chan interface{}
}

func New(cfg *FinalizerCfg) *Finalizer {
	f := &Finalizer{
		engine:       cfg.Engine,
		caller:       cfg.Caller,
		clock:        cfg.Clock,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		workers:      cfg.Workers,
		retryLimit:   cfg.RetryLimit,
		backoffStart: cfg.BackoffStart,
		backoffLimit: cfg.BackoffLimit,
		settled:      counter.NewCounter(),
		stoppedCh:    make(chan interface{}),
	}
	if f.clock == nil {
		f.clock = clock.New()
	}
	if f.interval <= 0 {
		f.interval = 30 * time.Second
	}
	if f.batchSize <= 0 {
		f.batchSize = 50
	}
	if f.workers <= 0 {
		f.workers = 4
	}
	if f.retryLimit <= 0 {
		f.retryLimit = 3
	}
	if f.backoffStart <= 0 {
		f.backoffStart = 100 * time.Millisecond
	}
	return f
}

func (f *Finalizer) Start(ctx bCtx.Ctx) {
	go func() {
		defer close(f.stoppedCh)
		panics := goroutine.Loop(ctx, f.interval, func() {
			if _, err := f.FinalizeDue(ctx); err != nil {
				ctx.WithField("err", err).Error("FinalizeDue failed")
			}
		})
		ctx.WithFields(log.Fields{"settled": f.Settled(), "panics": panics}).Info("finalizer stopped")
	}()
}

func (f *Finalizer) Wait() {
	<-f.stoppedCh
}

// Settled is the number of auctions settled since the finalizer was created
func (f *Finalizer) Settled() int {
	return f.settled.Count()
}

// FinalizeDue finalizes one batch of overdue auctions and returns how many were settled
func (f *Finalizer) FinalizeDue(ctx bCtx.Ctx) (int, error) {
	orders, err := f.engine.FindOrders(ctx,
		order.WithOrderType(order.OrderTypeAuction),
		order.WithStatus(order.StatusActive),
		order.WithEndTimeLT(f.clock.Now()),
		order.WithPagination(0, f.batchSize),
	)
	if err != nil {
		ctx.WithField("err", err).Error("engine.FindOrders failed")
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	b := goroutines.NewBatch(f.workers, goroutines.WithBatchSize(len(orders)))
	defer b.Close()
	for _, o := range orders {
		id := o.Id
		b.Queue(func() (interface{}, error) {
			return id, f.finalize(ctx, id)
		})
	}
	b.QueueComplete()

	settled := 0
	for ret := range b.Results() {
		if ret.Error() != nil {
			met.BumpSum("finalize.err", 1)
			ctx.WithFields(log.Fields{"err": ret.Error(), "orderId": ret.Value()}).Warn("finalize failed")
			continue
		}
		settled++
	}
	f.settled.Add(settled)
	met.BumpSum("finalize.settled", float64(settled))
	return settled, nil
}

// finalize retries infrastructure failures, a rejected settlement is final
func (f *Finalizer) finalize(ctx bCtx.Ctx, id uint64) error {
	bo := backoff.NewExponential(f.backoffStart, f.backoffLimit)
	for {
		_, err := f.engine.FinalizeAuctionOrder(ctx, f.caller, id)
		if err == nil || isFinal(err) || bo.Attempts()+1 >= f.retryLimit {
			return err
		}
		ctx.WithFields(log.Fields{"err": err, "orderId": id, "attempt": bo.Attempts() + 1}).Warn("finalize retrying")
		if bo.Backoff(ctx) != nil {
			// ctx closed
			return err
		}
	}
}

func isFinal(err error) bool {
	return order.IsValidationError(err) || order.IsAuthorizationError(err) || errors.Is(err, order.ErrOrderNotExist)
}
