package usecase

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/domain/royalty"
	"github.com/x-xyz/gomarket/service/currency"
)

var met = metrics.New("order")

type OrderUseCaseCfg struct {
	// Address is the custody principal, it must be approved on every listed token
	Address   domain.Address
	OrderRepo order.Repo
	EventRepo order.EventRepo
	Ledger    ledger.Ledger
	// Transactor wraps every mutating operation, Ledger is used when nil
	Transactor  ledger.Transactor
	Currency    currency.Service
	Royalty     royalty.Source
	Market      market.UseCase
	Notifier    order.Notifier
	Clock       clock.Clock
	// LockTimeout bounds the wait for a running operation, defaultLockTimeout when zero
	LockTimeout time.Duration
}

const defaultLockTimeout = 5 * time.Second

type impl struct {
	// sem holds one token per running operation
	sem         chan struct{}
	lockTimeout time.Duration
	address     domain.Address
	orderRepo   order.Repo
	eventRepo   order.EventRepo
	ledger      ledger.Ledger
	transactor  ledger.Transactor
	currency    currency.Service
	royalty     royalty.Source
	market      market.UseCase
	notifier    order.Notifier
	clock       *order.AuctionClock
}

func New(cfg *OrderUseCaseCfg) order.UseCase {
	transactor := cfg.Transactor
	if transactor == nil {
		transactor = cfg.Ledger
	}
	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &impl{
		sem:         make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		address:     cfg.Address.ToLower(),
		orderRepo:   cfg.OrderRepo,
		eventRepo:   cfg.EventRepo,
		ledger:      cfg.Ledger,
		transactor:  transactor,
		currency:    cfg.Currency,
		royalty:     cfg.Royalty,
		market:      cfg.Market,
		notifier:    cfg.Notifier,
		clock:       order.NewAuctionClock(cfg.Clock),
	}
}

func (im *impl) Address() domain.Address {
	return im.address
}

// guardKey marks a context that is already inside a market operation
type guardKey struct{}

// tx collects what an operation changed so an aborted operation can be undone
type tx struct {
	im     *impl
	pre    map[uint64]*order.Order
	events []*order.Event
}

// save records the pre-image of o the first time it is touched, then writes it
func (t *tx) save(c ctx.Ctx, o *order.Order) error {
	if _, ok := t.pre[o.Id]; !ok {
		prev, err := t.im.orderRepo.FindOne(c, o.Id)
		if err != nil && err != domain.ErrNotFound {
			c.WithFields(log.Fields{"err": err, "id": o.Id}).Error("orderRepo.FindOne failed")
			return err
		}
		t.pre[o.Id] = prev
	}
	o.UpdatedAt = t.im.clock.Now()
	if err := t.im.orderRepo.Upsert(c, o); err != nil {
		c.WithFields(log.Fields{"err": err, "id": o.Id}).Error("orderRepo.Upsert failed")
		return err
	}
	return nil
}

func (t *tx) emit(events ...*order.Event) {
	t.events = append(t.events, events...)
}

func (t *tx) rollback(c ctx.Ctx) {
	for id, prev := range t.pre {
		var err error
		if prev == nil {
			err = t.im.orderRepo.Delete(c, id)
		} else {
			err = t.im.orderRepo.Upsert(c, prev)
		}
		if err != nil {
			c.WithFields(log.Fields{"err": err, "id": id}).Error("failed to restore order")
		}
	}
}

// run executes fn as one serialized, all-or-nothing operation and publishes its events after commit
func (im *impl) run(c ctx.Ctx, op string, fn func(ctx.Ctx, *tx) error) error {
	events, err := im.exec(c, op, fn)
	if err != nil {
		return err
	}
	if im.notifier == nil {
		return nil
	}
	for _, e := range events {
		if err := im.notifier.Notify(c, e); err != nil {
			c.WithFields(log.Fields{"err": err, "event": e.Type, "orderId": e.OrderId}).Warn("notifier.Notify failed")
		}
	}
	return nil
}

func (im *impl) exec(c ctx.Ctx, op string, fn func(ctx.Ctx, *tx) error) ([]*order.Event, error) {
	if c.Value(guardKey{}) != nil {
		c.WithField("op", op).Warn("reentrant call rejected")
		return nil, order.ErrReentrantCall
	}

	if err := im.enter(c, op); err != nil {
		return nil, err
	}
	defer im.leave()
	defer met.BumpTime("op.time", "op", op).End()

	inner := ctx.Ctx{
		Context: context.WithValue(c.Context, guardKey{}, op),
		Logger:  c.Logger.WithField("op", op),
	}
	t := &tx{im: im, pre: map[uint64]*order.Order{}}
	err := im.transactor.RunInTransaction(inner, func(c ctx.Ctx) error {
		t.events = nil
		if err := fn(c, t); err != nil {
			return err
		}
		now := im.clock.Now()
		for _, e := range t.events {
			e.CreatedAt = now
		}
		if err := im.eventRepo.Append(c, t.events...); err != nil {
			c.WithField("err", err).Error("eventRepo.Append failed")
			return err
		}
		return nil
	})
	if err != nil {
		t.rollback(c)
		met.BumpSum("op.err", 1, "op", op)
		if isRejection(err) {
			inner.WithField("err", err).Info("operation rejected")
		} else {
			inner.WithField("err", err).Error("operation failed")
		}
		return nil, err
	}
	return t.events, nil
}

// enter takes the engine for one operation. A caller that cannot get it within lockTimeout is
// rejected, so a receive hook calling back with a foreign context fails instead of deadlocking.
// Hooks that pass on the context they receive are rejected at once with ErrReentrantCall.
func (im *impl) enter(c ctx.Ctx, op string) error {
	select {
	case im.sem <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(im.lockTimeout)
	defer timer.Stop()
	select {
	case im.sem <- struct{}{}:
		return nil
	case <-c.Done():
		return c.Err()
	case <-timer.C:
		met.BumpSum("op.busy", 1, "op", op)
		c.WithFields(log.Fields{"op": op, "wait": im.lockTimeout}).Warn("engine busy, operation rejected")
		return order.ErrEngineBusy
	}
}

func (im *impl) leave() {
	<-im.sem
}

func isRejection(err error) bool {
	return order.IsValidationError(err) || order.IsAuthorizationError(err) || errors.Is(err, order.ErrOrderNotExist)
}

// load returns the active order, terminal orders are reported as missing
func (im *impl) load(c ctx.Ctx, id uint64) (*order.Order, error) {
	o, err := im.orderRepo.FindOne(c, id)
	if err == domain.ErrNotFound {
		return nil, order.ErrOrderNotExist
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Error("orderRepo.FindOne failed")
		return nil, err
	}
	if !o.IsActive() {
		return nil, order.ErrOrderNotExist
	}
	return o, nil
}

// checkAsset verifies the contract and the caller's right over the token, it returns the registered owner
func (im *impl) checkAsset(c ctx.Ctx, caller, contract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	registry := im.ledger.Registry()

	ok, err := registry.SupportsInterface(c, contract, ledger.InterfaceIdERC721)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "contract": contract}).Error("registry.SupportsInterface failed")
		return "", err
	} else if !ok {
		return "", order.ErrUnsupportedInterface
	}

	owner, err := registry.OwnerOf(c, contract, tokenId)
	if err != nil {
		return "", err
	}
	owner = owner.ToLower()
	if owner.Equals(caller) {
		return owner, nil
	}

	approved, err := registry.GetApproved(c, contract, tokenId)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "contract": contract, "tokenId": tokenId}).Error("registry.GetApproved failed")
		return "", err
	}
	if approved.Equals(caller) {
		return owner, nil
	}

	ok, err = registry.IsApprovedForAll(c, contract, owner, caller)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "contract": contract}).Error("registry.IsApprovedForAll failed")
		return "", err
	} else if !ok {
		return "", order.ErrNotOwnerNorApproved
	}
	return owner, nil
}

func (im *impl) custody(c ctx.Ctx, o *order.Order) error {
	if err := im.ledger.Registry().TransferFrom(c, o.TokenContract, im.address, o.TokenOwner, im.address, o.TokenId); err != nil {
		c.WithFields(log.Fields{"err": err, "contract": o.TokenContract, "tokenId": o.TokenId}).Error("failed to custody token")
		return err
	}
	return nil
}

func (im *impl) release(c ctx.Ctx, o *order.Order, to domain.Address) error {
	if err := im.ledger.Registry().TransferFrom(c, o.TokenContract, im.address, im.address, to, o.TokenId); err != nil {
		c.WithFields(log.Fields{"err": err, "contract": o.TokenContract, "tokenId": o.TokenId, "to": to}).Error("failed to release token")
		return err
	}
	return nil
}

func (im *impl) newOrder(c ctx.Ctx, t order.OrderType, owner, contract domain.Address, tokenId domain.TokenId, currency domain.Address) (*order.Order, error) {
	id, err := im.orderRepo.NextId(c)
	if err != nil {
		c.WithField("err", err).Error("orderRepo.NextId failed")
		return nil, err
	}
	return &order.Order{
		Id:            id,
		OrderType:     t,
		Status:        order.StatusActive,
		TokenContract: contract,
		TokenId:       tokenId,
		TokenOwner:    owner,
		Currency:      currency,
		CreatedAt:     im.clock.Now(),
	}, nil
}

func (im *impl) CreateSellOrder(c ctx.Ctx, caller domain.Address, params order.CreateSellOrderParams) (*order.Order, error) {
	caller = caller.ToLower()
	contract := params.TokenContract.ToLower()

	var res *order.Order
	err := im.run(c, "createSellOrder", func(c ctx.Ctx, t *tx) error {
		owner, err := im.checkAsset(c, caller, contract, params.TokenId)
		if err != nil {
			return err
		}
		if !isPositive(params.Price) {
			return order.ErrPriceZero
		}
		adapter, err := im.currency.Adapter(params.Currency)
		if err != nil {
			return err
		}

		o, err := im.newOrder(c, order.OrderTypeSell, owner, contract, params.TokenId, adapter.Currency())
		if err != nil {
			return err
		}
		o.Price = domain.CopyBig(params.Price)

		if err := im.custody(c, o); err != nil {
			return err
		}
		if err := t.save(c, o); err != nil {
			return err
		}
		t.emit(order.NewOrderCreated(o))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) UpdateSellOrder(c ctx.Ctx, caller domain.Address, orderId uint64, price *big.Int) (*order.Order, error) {
	caller = caller.ToLower()

	var res *order.Order
	err := im.run(c, "updateSellOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if o.OrderType != order.OrderTypeSell {
			return order.ErrNotSellOrder
		}
		if !o.IsCreator(caller) {
			return order.ErrNotOrderCreator
		}
		if !isPositive(price) {
			return order.ErrPriceZero
		}

		o.Price = domain.CopyBig(price)
		if err := t.save(c, o); err != nil {
			return err
		}
		t.emit(order.NewOrderUpdated(o))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) CreateAuctionOrder(c ctx.Ctx, caller domain.Address, params order.CreateAuctionOrderParams) (*order.Order, error) {
	caller = caller.ToLower()
	contract := params.TokenContract.ToLower()

	var res *order.Order
	err := im.run(c, "createAuctionOrder", func(c ctx.Ctx, t *tx) error {
		owner, err := im.checkAsset(c, caller, contract, params.TokenId)
		if err != nil {
			return err
		}
		if !isPositive(params.ReservePrice) {
			return order.ErrReservePriceZero
		}
		if params.Duration <= 0 {
			return order.ErrDurationZero
		}
		adapter, err := im.currency.Adapter(params.Currency)
		if err != nil {
			return err
		}

		o, err := im.newOrder(c, order.OrderTypeAuction, owner, contract, params.TokenId, adapter.Currency())
		if err != nil {
			return err
		}
		o.ReservePrice = domain.CopyBig(params.ReservePrice)
		o.Duration = params.Duration
		o.ExtensionDuration = params.ExtensionDuration
		if o.ExtensionDuration <= 0 {
			o.ExtensionDuration = order.DefaultExtensionDuration
		}
		o.MinBidIncrement = params.MinBidIncrement
		if o.MinBidIncrement == 0 {
			o.MinBidIncrement = order.DefaultMinBidIncrement
		}

		if err := im.custody(c, o); err != nil {
			return err
		}
		if err := t.save(c, o); err != nil {
			return err
		}
		t.emit(order.NewOrderCreated(o))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) UpdateAuctionOrder(c ctx.Ctx, caller domain.Address, orderId uint64, reservePrice *big.Int) (*order.Order, error) {
	caller = caller.ToLower()

	var res *order.Order
	err := im.run(c, "updateAuctionOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if !o.IsAuction() {
			return order.ErrNotAuctionOrder
		}
		if !o.IsCreator(caller) {
			return order.ErrNotOrderCreator
		}
		if o.HasBid() {
			return order.ErrAuctionInProgress
		}
		if !isPositive(reservePrice) {
			return order.ErrReservePriceZero
		}

		o.ReservePrice = domain.CopyBig(reservePrice)
		if err := t.save(c, o); err != nil {
			return err
		}
		t.emit(order.NewOrderUpdated(o))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) CancelOrder(c ctx.Ctx, caller domain.Address, orderId uint64) error {
	caller = caller.ToLower()

	return im.run(c, "cancelOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if !o.IsCreator(caller) {
			return order.ErrNotOrderCreator
		}
		if o.IsAuction() && o.HasBid() {
			return order.ErrAuctionInProgress
		}

		o.Status = order.StatusCanceled
		if err := t.save(c, o); err != nil {
			return err
		}
		if err := im.release(c, o, o.TokenOwner); err != nil {
			return err
		}
		t.emit(order.NewOrderCanceled(o))
		return nil
	})
}

func (im *impl) CreateBuyOrder(c ctx.Ctx, caller domain.Address, orderId uint64, sentValue *big.Int) (*order.Order, error) {
	caller = caller.ToLower()

	var res *order.Order
	err := im.run(c, "createBuyOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if o.OrderType != order.OrderTypeSell {
			return order.ErrNotSellOrder
		}
		adapter, err := im.currency.Adapter(o.Currency)
		if err != nil {
			return err
		}
		o.Status = order.StatusSettled
		if err := t.save(c, o); err != nil {
			return err
		}
		if err := adapter.Pull(c, caller, o.Price, sentValue); err != nil {
			return err
		}
		d, err := im.settle(c, t, o, adapter, caller, o.Price)
		if err != nil {
			return err
		}
		t.emit(order.NewOrderBuyCreated(o, caller), order.NewOrderFinished(o, caller, o.Price, d))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (im *impl) CreateBidOrder(c ctx.Ctx, caller domain.Address, orderId uint64, price *big.Int, sentValue *big.Int) (*order.Order, error) {
	caller = caller.ToLower()
	price = orZero(price)
	sentValue = orZero(sentValue)

	var res *order.Order
	err := im.run(c, "createBidOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if !o.IsAuction() {
			return order.ErrNotAuctionOrder
		}

		bid := price
		if o.Currency.IsNative() {
			bid = sentValue
		}
		if err := im.checkBid(o, caller, bid); err != nil {
			return err
		}
		if o.Currency.IsNative() && price.Cmp(sentValue) != 0 {
			return order.ErrSentValueMismatch
		}

		adapter, err := im.currency.Adapter(o.Currency)
		if err != nil {
			return err
		}
		prevBidder, prevAmount := o.Bidder, o.Amount
		o.Bidder = caller
		o.Amount = domain.CopyBig(bid)
		extended := false
		if !o.HasBid() {
			im.clock.Start(o)
		} else {
			extended = im.clock.MaybeExtend(o)
		}
		if err := t.save(c, o); err != nil {
			return err
		}
		if err := adapter.Pull(c, caller, bid, sentValue); err != nil {
			return err
		}

		if !prevBidder.IsEmpty() && !domain.IsZero(prevAmount) {
			payout, err := adapter.Refund(c, prevBidder, prevAmount)
			if err != nil {
				c.WithFields(log.Fields{"err": err, "bidder": prevBidder, "amount": prevAmount}).Error("adapter.Refund failed")
				return err
			}
			if payout.Wrapped {
				t.emit(order.NewPaymentWrapped(o.Id, prevBidder, prevAmount))
			}
		}
		t.emit(order.NewOrderBidCreated(o, extended))
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkBid applies the bid rules in the order their errors take precedence
func (im *impl) checkBid(o *order.Order, caller domain.Address, bid *big.Int) error {
	if !o.HasBid() {
		if bid.Cmp(o.ReservePrice) < 0 {
			return order.ErrBidBelowReserve
		}
		return nil
	}
	if im.clock.IsOver(o) {
		return order.ErrAuctionOver
	}
	if o.Bidder.Equals(caller) {
		return order.ErrAlreadyHighestBid
	}
	if !meetsIncrement(o.Amount, bid, o.MinBidIncrement) {
		return order.ErrBidTooLow
	}
	return nil
}

// meetsIncrement is bid > amount and bid >= amount + amount*incrementBps/10000
func meetsIncrement(amount, bid *big.Int, incrementBps uint16) bool {
	amount = orZero(amount)
	if bid.Cmp(amount) <= 0 {
		return false
	}
	min := new(big.Int).Mul(amount, big.NewInt(int64(incrementBps)))
	min.Quo(min, domain.Big10000)
	min.Add(min, amount)
	return bid.Cmp(min) >= 0
}

func (im *impl) FinalizeAuctionOrder(c ctx.Ctx, caller domain.Address, orderId uint64) (*order.Order, error) {
	var res *order.Order
	err := im.run(c, "finalizeAuctionOrder", func(c ctx.Ctx, t *tx) error {
		o, err := im.load(c, orderId)
		if err != nil {
			return err
		}
		if !o.IsAuction() {
			return order.ErrNotAuctionOrder
		}
		if !o.HasBid() {
			return order.ErrAuctionNotStarted
		}
		if !im.clock.IsOver(o) {
			return order.ErrAuctionInProgress
		}
		adapter, err := im.currency.Adapter(o.Currency)
		if err != nil {
			return err
		}

		o.Status = order.StatusSettled
		if err := t.save(c, o); err != nil {
			return err
		}
		d, err := im.settle(c, t, o, adapter, o.Bidder, o.Amount)
		if err != nil {
			return err
		}
		t.emit(order.NewOrderFinished(o, o.Bidder, o.Amount, d))
		c.WithFields(log.Fields{"orderId": o.Id, "caller": caller.ToLower(), "winner": o.Bidder}).Info("auction finalized")
		res = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// settle pays treasury, royalty recipient and owner out of escrow, then delivers the token to buyer
func (im *impl) settle(c ctx.Ctx, t *tx, o *order.Order, adapter currency.Adapter, buyer domain.Address, price *big.Int) (*order.Distribution, error) {
	settings, err := im.market.GetSettings(c)
	if err != nil {
		c.WithField("err", err).Error("market.GetSettings failed")
		return nil, err
	}
	info, err := im.royalty.GetRoyalty(c, o.TokenContract, o.TokenId)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "contract": o.TokenContract, "tokenId": o.TokenId}).Error("royalty.GetRoyalty failed")
		return nil, err
	}

	d := order.NewDistribution(price, settings.FeeBps, info.Recipient, info.Bps)
	payouts := []struct {
		to     domain.Address
		amount *big.Int
	}{
		{settings.Treasury, d.Market},
		{d.RoyaltyRecipient, d.Creator},
		{o.TokenOwner, d.Owner},
	}
	for _, p := range payouts {
		if p.amount.Sign() == 0 {
			continue
		}
		payout, err := adapter.Push(c, p.to, p.amount)
		if err != nil {
			c.WithFields(log.Fields{"err": err, "to": p.to, "amount": p.amount}).Error("adapter.Push failed")
			return nil, err
		}
		if payout.Wrapped {
			t.emit(order.NewPaymentWrapped(o.Id, p.to, p.amount))
		}
	}

	if err := im.release(c, o, buyer); err != nil {
		return nil, err
	}
	return d, nil
}

func (im *impl) GetOrder(c ctx.Ctx, orderId uint64) (*order.Order, error) {
	o, err := im.orderRepo.FindOne(c, orderId)
	if err == domain.ErrNotFound {
		return nil, order.ErrOrderNotExist
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "id": orderId}).Error("orderRepo.FindOne failed")
		return nil, err
	}
	return o, nil
}

func (im *impl) FindOrders(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	res, err := im.orderRepo.FindAll(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("orderRepo.FindAll failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) CountOrders(c ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	cnt, err := im.orderRepo.Count(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("orderRepo.Count failed")
		return 0, err
	}
	return cnt, nil
}

func (im *impl) FindEvents(c ctx.Ctx, opts ...order.EventFindAllOptionsFunc) ([]*order.Event, error) {
	res, err := im.eventRepo.FindAll(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("eventRepo.FindAll failed")
		return nil, err
	}
	return res, nil
}

func isPositive(n *big.Int) bool {
	return n != nil && n.Sign() > 0
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
