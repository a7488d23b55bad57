package order

import (
	"math/big"
	"time"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

type EventType string

const (
	EventOrderCreated    EventType = "OrderCreated"
	EventOrderUpdated    EventType = "OrderUpdated"
	EventOrderCanceled   EventType = "OrderCanceled"
	EventOrderBuyCreated EventType = "OrderBuyCreated"
	EventOrderBidCreated EventType = "OrderBidCreated"
	EventOrderFinished   EventType = "OrderFinished"
	EventPaymentWrapped  EventType = "PaymentWrapped"
)

// Event is a flat record of a committed market operation. Amounts are base 10 strings,
// fields that do not apply to the event type are left empty. The auction parameters are always
// serialized since OrderCreated carries them for both order types.
type Event struct {
	Seq               uint64         `json:"seq" bson:"seq"`
	Type              EventType      `json:"type" bson:"type"`
	OrderId           uint64         `json:"orderId" bson:"orderId"`
	OrderType         OrderType      `json:"orderType,omitempty" bson:"orderType,omitempty"`
	TokenContract     domain.Address `json:"tokenContract,omitempty" bson:"tokenContract,omitempty"`
	TokenId           domain.TokenId `json:"tokenId,omitempty" bson:"tokenId,omitempty"`
	TokenOwner        domain.Address `json:"tokenOwner,omitempty" bson:"tokenOwner,omitempty"`
	Bidder            domain.Address `json:"bidder,omitempty" bson:"bidder,omitempty"`
	Recipient         domain.Address `json:"recipient,omitempty" bson:"recipient,omitempty"`
	Currency          domain.Address `json:"currency,omitempty" bson:"currency,omitempty"`
	Price             string         `json:"price,omitempty" bson:"price,omitempty"`
	ReservePrice      string         `json:"reservePrice,omitempty" bson:"reservePrice,omitempty"`
	Amount            string         `json:"amount,omitempty" bson:"amount,omitempty"`
	Duration          time.Duration  `json:"duration" bson:"duration,omitempty"`
	ExtensionDuration time.Duration  `json:"extensionDuration" bson:"extensionDuration,omitempty"`
	MinBidIncrement   uint16         `json:"minBidIncrement" bson:"minBidIncrement,omitempty"`
	EndTime           time.Time      `json:"endTime,omitempty" bson:"endTime,omitempty"`
	Extended          bool           `json:"extended,omitempty" bson:"extended,omitempty"`
	MarketPortion     string         `json:"marketPortion,omitempty" bson:"marketPortion,omitempty"`
	CreatorPortion    string         `json:"creatorPortion,omitempty" bson:"creatorPortion,omitempty"`
	OwnerPortion      string         `json:"ownerPortion,omitempty" bson:"ownerPortion,omitempty"`
	RoyaltyRecipient  domain.Address `json:"royaltyRecipient,omitempty" bson:"royaltyRecipient,omitempty"`
	CreatedAt         time.Time      `json:"createdAt" bson:"createdAt"`
}

func amountStr(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// NewOrderCreated sets every creation field, "0" where the order type has none
func NewOrderCreated(o *Order) *Event {
	return &Event{
		Type:              EventOrderCreated,
		OrderId:           o.Id,
		OrderType:         o.OrderType,
		TokenContract:     o.TokenContract,
		TokenId:           o.TokenId,
		TokenOwner:        o.TokenOwner,
		Currency:          o.Currency,
		Price:             amountStr(o.Price),
		ReservePrice:      amountStr(o.ReservePrice),
		Duration:          o.Duration,
		ExtensionDuration: o.ExtensionDuration,
		MinBidIncrement:   o.MinBidIncrement,
	}
}

func NewOrderUpdated(o *Order) *Event {
	e := &Event{
		Type:      EventOrderUpdated,
		OrderId:   o.Id,
		OrderType: o.OrderType,
	}
	if o.IsAuction() {
		e.ReservePrice = amountStr(o.ReservePrice)
	} else {
		e.Price = amountStr(o.Price)
	}
	return e
}

func NewOrderCanceled(o *Order) *Event {
	return &Event{
		Type:          EventOrderCanceled,
		OrderId:       o.Id,
		TokenContract: o.TokenContract,
		TokenId:       o.TokenId,
	}
}

func NewOrderBuyCreated(o *Order, buyer domain.Address) *Event {
	return &Event{
		Type:          EventOrderBuyCreated,
		OrderId:       o.Id,
		TokenContract: o.TokenContract,
		TokenId:       o.TokenId,
		TokenOwner:    o.TokenOwner,
		Bidder:        buyer,
		Price:         amountStr(o.Price),
		Currency:      o.Currency,
	}
}

func NewOrderBidCreated(o *Order, extended bool) *Event {
	return &Event{
		Type:     EventOrderBidCreated,
		OrderId:  o.Id,
		Bidder:   o.Bidder,
		Price:    amountStr(o.Amount),
		EndTime:  o.EndTime,
		Extended: extended,
	}
}

// NewOrderFinished records a settlement, price is the amount actually paid
func NewOrderFinished(o *Order, buyer domain.Address, price *big.Int, d *Distribution) *Event {
	return &Event{
		Type:             EventOrderFinished,
		OrderId:          o.Id,
		OrderType:        o.OrderType,
		TokenContract:    o.TokenContract,
		TokenId:          o.TokenId,
		TokenOwner:       o.TokenOwner,
		Bidder:           buyer,
		Price:            amountStr(price),
		MarketPortion:    amountStr(d.Market),
		CreatorPortion:   amountStr(d.Creator),
		OwnerPortion:     amountStr(d.Owner),
		RoyaltyRecipient: d.RoyaltyRecipient,
		Currency:         o.Currency,
	}
}

func NewPaymentWrapped(orderId uint64, recipient domain.Address, amount *big.Int) *Event {
	return &Event{
		Type:      EventPaymentWrapped,
		OrderId:   orderId,
		Recipient: recipient,
		Amount:    amountStr(amount),
		Currency:  domain.NativeCurrency,
	}
}

type EventFindAllOptions struct {
	OrderId *uint64
	Types   []EventType
	Offset  *int32
	Limit   *int32
}

type EventFindAllOptionsFunc func(*EventFindAllOptions) error

func GetEventFindAllOptions(opts ...EventFindAllOptionsFunc) (EventFindAllOptions, error) {
	res := EventFindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func EventWithOrderId(id uint64) EventFindAllOptionsFunc {
	return func(options *EventFindAllOptions) error {
		options.OrderId = &id
		return nil
	}
}

func EventWithTypes(types ...EventType) EventFindAllOptionsFunc {
	return func(options *EventFindAllOptions) error {
		options.Types = types
		return nil
	}
}

func EventWithPagination(offset int32, limit int32) EventFindAllOptionsFunc {
	return func(options *EventFindAllOptions) error {
		if offset < 0 || limit < 0 {
			return domain.ErrBadParamInput
		}
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

// EventRepo is the append only event log, Seq is assigned on Append in insertion order
type EventRepo interface {
	Append(ctx ctx.Ctx, events ...*Event) error
	FindAll(ctx ctx.Ctx, opts ...EventFindAllOptionsFunc) ([]*Event, error)
}

// Notifier receives committed events, failures never affect the operation that produced them
type Notifier interface {
	Notify(ctx ctx.Ctx, event *Event) error
}
