package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/database/mongoclient"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/service/query"
)

const (
	counterOrders = "orders"
	counterEvents = "order_events"
)

type counter struct {
	Id  string `bson:"_id"`
	Seq uint64 `bson:"seq"`
}

// orderDoc stores amounts as base 10 strings, bson has no arbitrary precision integer
type orderDoc struct {
	Id                uint64          `bson:"_id"`
	OrderType         order.OrderType `bson:"orderType"`
	Status            order.Status    `bson:"status"`
	TokenContract     domain.Address  `bson:"tokenContract"`
	TokenId           domain.TokenId  `bson:"tokenId"`
	TokenOwner        domain.Address  `bson:"tokenOwner"`
	Currency          domain.Address  `bson:"currency"`
	Price             string          `bson:"price,omitempty"`
	ReservePrice      string          `bson:"reservePrice,omitempty"`
	Duration          time.Duration   `bson:"duration"`
	ExtensionDuration time.Duration   `bson:"extensionDuration"`
	MinBidIncrement   uint16          `bson:"minBidIncrement"`
	HasBid            bool            `bson:"hasBid"`
	FirstBidTime      time.Time       `bson:"firstBidTime"`
	EndTime           time.Time       `bson:"endTime"`
	Bidder            domain.Address  `bson:"bidder,omitempty"`
	Amount            string          `bson:"amount,omitempty"`
	CreatedAt         time.Time       `bson:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt"`
}

func toDoc(o *order.Order) *orderDoc {
	doc := &orderDoc{
		Id:                o.Id,
		OrderType:         o.OrderType,
		Status:            o.Status,
		TokenContract:     o.TokenContract.ToLower(),
		TokenId:           o.TokenId,
		TokenOwner:        o.TokenOwner.ToLower(),
		Currency:          o.Currency.ToLower(),
		Duration:          o.Duration,
		ExtensionDuration: o.ExtensionDuration,
		MinBidIncrement:   o.MinBidIncrement,
		HasBid:            o.HasBid(),
		FirstBidTime:      o.FirstBidTime,
		EndTime:           o.EndTime,
		Bidder:            o.Bidder.ToLower(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.Price != nil {
		doc.Price = o.Price.String()
	}
	if o.ReservePrice != nil {
		doc.ReservePrice = o.ReservePrice.String()
	}
	if o.Amount != nil {
		doc.Amount = o.Amount.String()
	}
	return doc
}

func (d *orderDoc) toOrder() (*order.Order, error) {
	o := &order.Order{
		Id:                d.Id,
		OrderType:         d.OrderType,
		Status:            d.Status,
		TokenContract:     d.TokenContract,
		TokenId:           d.TokenId,
		TokenOwner:        d.TokenOwner,
		Currency:          d.Currency,
		Duration:          d.Duration,
		ExtensionDuration: d.ExtensionDuration,
		MinBidIncrement:   d.MinBidIncrement,
		Bidder:            d.Bidder,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.HasBid {
		o.FirstBidTime = d.FirstBidTime
		o.EndTime = d.EndTime
	}
	var err error
	if len(d.Price) > 0 {
		if o.Price, err = domain.ParseAmount(d.Price); err != nil {
			return nil, err
		}
	}
	if len(d.ReservePrice) > 0 {
		if o.ReservePrice, err = domain.ParseAmount(d.ReservePrice); err != nil {
			return nil, err
		}
	}
	if len(d.Amount) > 0 {
		if o.Amount, err = domain.ParseAmount(d.Amount); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// orderSelector holds the equality filters, nil fields are left out by MakeBsonM
type orderSelector struct {
	TokenOwner    *domain.Address  `bson:"tokenOwner,omitempty"`
	Bidder        *domain.Address  `bson:"bidder,omitempty"`
	TokenContract *domain.Address  `bson:"tokenContract,omitempty"`
	TokenId       *domain.TokenId  `bson:"tokenId,omitempty"`
	OrderType     *order.OrderType `bson:"orderType,omitempty"`
	Status        *order.Status    `bson:"status,omitempty"`
	HasBid        *bool            `bson:"hasBid,omitempty"`
}

type orderRepoImpl struct {
	q query.Mongo
}

func NewOrderRepo(q query.Mongo) order.Repo {
	return &orderRepoImpl{q}
}

// EnsureOrderIndexes creates the indexes FindAll filters rely on
func EnsureOrderIndexes(c ctx.Ctx, q query.Mongo) error {
	if err := q.EnsureIndexes(c, domain.TableOrders,
		query.Index{Keys: []string{"tokenOwner", "status"}},
		query.Index{Keys: []string{"bidder", "status"}},
		query.Index{Keys: []string{"tokenContract", "tokenId"}},
		query.Index{Keys: []string{"status", "orderType", "hasBid", "endTime"}},
	); err != nil {
		c.WithField("err", err).Error("q.EnsureIndexes failed")
		return err
	}
	if err := q.EnsureIndexes(c, domain.TableOrderEvents,
		query.Index{Keys: []string{"seq"}, Unique: true},
		query.Index{Keys: []string{"orderId", "seq"}},
	); err != nil {
		c.WithField("err", err).Error("q.EnsureIndexes failed")
		return err
	}
	return nil
}

func (im *orderRepoImpl) makeQuery(opts ...order.FindAllOptionsFunc) (bson.M, order.FindAllOptions, error) {
	options, err := order.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}

	qry, err := mongoclient.MakeBsonM(&orderSelector{
		TokenOwner:    options.TokenOwner,
		Bidder:        options.Bidder,
		TokenContract: options.TokenContract,
		TokenId:       options.TokenId,
		OrderType:     options.OrderType,
		Status:        options.Status,
		HasBid:        options.HasBid,
	})
	if err != nil {
		return nil, options, err
	}

	if options.EndTimeLT != nil {
		qry["hasBid"] = true
		qry["endTime"] = bson.M{"$lt": *options.EndTimeLT}
	}
	return qry, options, nil
}

func (im *orderRepoImpl) NextId(c ctx.Ctx) (uint64, error) {
	return nextSeq(c, im.q, counterOrders)
}

func nextSeq(c ctx.Ctx, q query.Mongo, name string) (uint64, error) {
	res := &counter{}
	if err := q.Increment(c, domain.TableCounters, bson.M{"_id": name}, res, "seq", 1); err != nil {
		c.WithFields(log.Fields{"err": err, "counter": name}).Error("q.Increment failed")
		return 0, err
	}
	return res.Seq, nil
}

func (im *orderRepoImpl) FindOne(c ctx.Ctx, id uint64) (*order.Order, error) {
	doc := &orderDoc{}
	if err := im.q.FindOne(c, domain.TableOrders, bson.M{"_id": id}, doc); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Error("q.FindOne failed")
		return nil, err
	}
	return doc.toOrder()
}

func (im *orderRepoImpl) FindAll(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	qry, options, err := im.makeQuery(opts...)
	if err != nil {
		c.WithField("err", err).Error("im.makeQuery failed")
		return nil, err
	}

	offset, limit := 0, 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	docs := []*orderDoc{}
	if err := im.q.Search(c, domain.TableOrders, offset, limit, []string{"_id"}, qry, &docs); err != nil {
		c.WithFields(log.Fields{"err": err, "query": qry}).Error("q.Search failed")
		return nil, err
	}

	res := make([]*order.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toOrder()
		if err != nil {
			c.WithFields(log.Fields{"err": err, "id": d.Id}).Error("toOrder failed")
			return nil, err
		}
		res = append(res, o)
	}
	return res, nil
}

func (im *orderRepoImpl) Count(c ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	qry, _, err := im.makeQuery(opts...)
	if err != nil {
		c.WithField("err", err).Error("im.makeQuery failed")
		return 0, err
	}

	cnt, err := im.q.Count(c, domain.TableOrders, qry)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "query": qry}).Error("q.Count failed")
		return 0, err
	}
	return cnt, nil
}

func (im *orderRepoImpl) Upsert(c ctx.Ctx, o *order.Order) error {
	if err := im.q.Upsert(c, domain.TableOrders, bson.M{"_id": o.Id}, toDoc(o)); err != nil {
		c.WithFields(log.Fields{"err": err, "id": o.Id}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (im *orderRepoImpl) Delete(c ctx.Ctx, id uint64) error {
	if err := im.q.Remove(c, domain.TableOrders, bson.M{"_id": id}); err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Error("q.Remove failed")
		return err
	}
	return nil
}

type eventRepoImpl struct {
	q query.Mongo
}

func NewEventRepo(q query.Mongo) order.EventRepo {
	return &eventRepoImpl{q}
}

func (im *eventRepoImpl) Append(c ctx.Ctx, events ...*order.Event) error {
	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		seq, err := nextSeq(c, im.q, counterEvents)
		if err != nil {
			return err
		}
		e.Seq = seq
		docs = append(docs, e)
	}
	if len(docs) == 0 {
		return nil
	}
	if err := im.q.Insert(c, domain.TableOrderEvents, docs...); err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *eventRepoImpl) FindAll(c ctx.Ctx, opts ...order.EventFindAllOptionsFunc) ([]*order.Event, error) {
	options, err := order.GetEventFindAllOptions(opts...)
	if err != nil {
		c.WithField("err", err).Error("order.GetEventFindAllOptions failed")
		return nil, err
	}

	qry := bson.M{}
	if options.OrderId != nil {
		qry["orderId"] = *options.OrderId
	}
	if len(options.Types) > 0 {
		qry["type"] = bson.M{"$in": options.Types}
	}
	offset, limit := 0, 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*order.Event{}
	if err := im.q.Search(c, domain.TableOrderEvents, offset, limit, []string{"seq"}, qry, &res); err != nil {
		c.WithFields(log.Fields{"err": err, "query": qry}).Error("q.Search failed")
		return nil, err
	}
	return res, nil
}
