package repository

import (
	"sort"
	"sync"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
)

type memoryOrderRepo struct {
	mu     sync.RWMutex
	lastId uint64
	orders map[uint64]*order.Order
}

// NewMemoryOrderRepo keeps orders in process, records are copied in and out
func NewMemoryOrderRepo() order.Repo {
	return &memoryOrderRepo{orders: make(map[uint64]*order.Order)}
}

func (r *memoryOrderRepo) NextId(c ctx.Ctx) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastId++
	return r.lastId, nil
}

func (r *memoryOrderRepo) FindOne(c ctx.Ctx, id uint64) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *memoryOrderRepo) match(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, order.FindAllOptions, error) {
	options, err := order.GetFindAllOptions(opts...)
	if err != nil {
		c.WithField("err", err).Error("order.GetFindAllOptions failed")
		return nil, options, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []*order.Order{}
	for _, o := range r.orders {
		if matches(o, &options) {
			res = append(res, o.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, options, nil
}

func (r *memoryOrderRepo) FindAll(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	res, options, err := r.match(c, opts...)
	if err != nil {
		return nil, err
	}
	return paginate(res, options.Offset, options.Limit), nil
}

func (r *memoryOrderRepo) Count(c ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	res, _, err := r.match(c, opts...)
	if err != nil {
		return 0, err
	}
	return len(res), nil
}

func (r *memoryOrderRepo) Upsert(c ctx.Ctx, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.Id > r.lastId {
		r.lastId = o.Id
	}
	r.orders[o.Id] = o.Clone()
	return nil
}

func (r *memoryOrderRepo) Delete(c ctx.Ctx, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func matches(o *order.Order, opts *order.FindAllOptions) bool {
	switch {
	case opts.TokenOwner != nil && !o.TokenOwner.Equals(*opts.TokenOwner):
		return false
	case opts.Bidder != nil && !o.Bidder.Equals(*opts.Bidder):
		return false
	case opts.TokenContract != nil && !o.TokenContract.Equals(*opts.TokenContract):
		return false
	case opts.TokenId != nil && o.TokenId != *opts.TokenId:
		return false
	case opts.OrderType != nil && o.OrderType != *opts.OrderType:
		return false
	case opts.Status != nil && o.Status != *opts.Status:
		return false
	case opts.HasBid != nil && o.HasBid() != *opts.HasBid:
		return false
	case opts.EndTimeLT != nil && (!o.HasBid() || !o.EndTime.Before(*opts.EndTimeLT)):
		return false
	}
	return true
}

func paginate(res []*order.Order, offset, limit *int32) []*order.Order {
	if offset != nil {
		if int(*offset) >= len(res) {
			return []*order.Order{}
		}
		res = res[*offset:]
	}
	if limit != nil && *limit > 0 && int(*limit) < len(res) {
		res = res[:*limit]
	}
	return res
}

type memoryEventRepo struct {
	mu     sync.RWMutex
	events []*order.Event
}

func NewMemoryEventRepo() order.EventRepo {
	return &memoryEventRepo{}
}

func (r *memoryEventRepo) Append(c ctx.Ctx, events ...*order.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		e.Seq = uint64(len(r.events)) + 1
		cp := *e
		r.events = append(r.events, &cp)
	}
	return nil
}

func (r *memoryEventRepo) FindAll(c ctx.Ctx, opts ...order.EventFindAllOptionsFunc) ([]*order.Event, error) {
	options, err := order.GetEventFindAllOptions(opts...)
	if err != nil {
		c.WithField("err", err).Error("order.GetEventFindAllOptions failed")
		return nil, err
	}

	types := map[order.EventType]bool{}
	for _, t := range options.Types {
		types[t] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []*order.Event{}
	for _, e := range r.events {
		if options.OrderId != nil && e.OrderId != *options.OrderId {
			continue
		}
		if len(types) > 0 && !types[e.Type] {
			continue
		}
		cp := *e
		res = append(res, &cp)
	}

	if options.Offset != nil {
		if int(*options.Offset) >= len(res) {
			return []*order.Event{}, nil
		}
		res = res[*options.Offset:]
	}
	if options.Limit != nil && *options.Limit > 0 && int(*options.Limit) < len(res) {
		res = res[:*options.Limit]
	}
	return res, nil
}
