package order

import (
	"math/big"
	"time"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/ptr"
	"github.com/x-xyz/gomarket/domain"
)

const (
	// DefaultExtensionDuration applies when an auction is created with zero extension
	DefaultExtensionDuration = 900 * time.Second
	// DefaultMinBidIncrement applies when an auction is created with zero increment, in basis points
	DefaultMinBidIncrement uint16 = 100
)

type OrderType string

const (
	OrderTypeSell    OrderType = "sell"
	OrderTypeAuction OrderType = "auction"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeSell || t == OrderTypeAuction
}

type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusSettled  Status = "settled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusSettled
}

type Order struct {
	Id                uint64         `json:"id"`
	OrderType         OrderType      `json:"orderType"`
	Status            Status         `json:"status"`
	TokenContract     domain.Address `json:"tokenContract"`
	TokenId           domain.TokenId `json:"tokenId"`
	TokenOwner        domain.Address `json:"tokenOwner"`
	Currency          domain.Address `json:"currency"`
	Price             *big.Int       `json:"price"`
	ReservePrice      *big.Int       `json:"reservePrice"`
	Duration          time.Duration  `json:"duration"`
	ExtensionDuration time.Duration  `json:"extensionDuration"`
	MinBidIncrement   uint16         `json:"minBidIncrement"`
	FirstBidTime      time.Time      `json:"firstBidTime"`
	EndTime           time.Time      `json:"endTime"`
	Bidder            domain.Address `json:"bidder"`
	Amount            *big.Int       `json:"amount"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (o *Order) IsActive() bool {
	return o.Status == StatusActive
}

func (o *Order) IsAuction() bool {
	return o.OrderType == OrderTypeAuction
}

// HasBid reports whether the auction clock has started
func (o *Order) HasBid() bool {
	return !o.FirstBidTime.IsZero()
}

func (o *Order) IsCreator(caller domain.Address) bool {
	return o.TokenOwner.Equals(caller)
}

// Clone returns a deep copy, used to restore the record when a settlement aborts
func (o *Order) Clone() *Order {
	res := *o
	res.Price = cloneBig(o.Price)
	res.ReservePrice = cloneBig(o.ReservePrice)
	res.Amount = cloneBig(o.Amount)
	return &res
}

func (o *Order) LowerCase() {
	o.TokenContract = o.TokenContract.ToLower()
	o.TokenOwner = o.TokenOwner.ToLower()
	o.Currency = o.Currency.ToLower()
	o.Bidder = o.Bidder.ToLower()
}

func cloneBig(n *big.Int) *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set(n)
}

type FindAllOptions struct {
	TokenOwner    *domain.Address
	Bidder        *domain.Address
	TokenContract *domain.Address
	TokenId       *domain.TokenId
	OrderType     *OrderType
	Status        *Status
	EndTimeLT     *time.Time
	HasBid        *bool
	Offset        *int32
	Limit         *int32
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithTokenOwner(owner domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		owner = owner.ToLower()
		options.TokenOwner = &owner
		return nil
	}
}

func WithBidder(bidder domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		bidder = bidder.ToLower()
		options.Bidder = &bidder
		return nil
	}
}

func WithToken(contract domain.Address, tokenId domain.TokenId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		contract = contract.ToLower()
		options.TokenContract = &contract
		options.TokenId = &tokenId
		return nil
	}
}

func WithTokenContract(contract domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		contract = contract.ToLower()
		options.TokenContract = &contract
		return nil
	}
}

func WithOrderType(t OrderType) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		if !t.IsValid() {
			return domain.ErrBadParamInput
		}
		options.OrderType = &t
		return nil
	}
}

func WithStatus(s Status) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Status = &s
		return nil
	}
}

// WithEndTimeLT matches started auctions whose deadline is before t
func WithEndTimeLT(t time.Time) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.EndTimeLT = &t
		return nil
	}
}

func WithHasBid(hasBid bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.HasBid = ptr.Bool(hasBid)
		return nil
	}
}

func WithPagination(offset int32, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		if offset < 0 || limit < 0 {
			return domain.ErrBadParamInput
		}
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

// Repo owns the order records. Ids come from NextId and are never reused.
type Repo interface {
	NextId(ctx ctx.Ctx) (uint64, error)
	FindOne(ctx ctx.Ctx, id uint64) (*Order, error)
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Order, error)
	Count(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	Upsert(ctx ctx.Ctx, order *Order) error
	// Delete only undoes the insert of an aborted create
	Delete(ctx ctx.Ctx, id uint64) error
}
