package order

import (
	"math/big"
	"time"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

type CreateSellOrderParams struct {
	TokenContract domain.Address
	TokenId       domain.TokenId
	Currency      domain.Address
	Price         *big.Int
}

type CreateAuctionOrderParams struct {
	TokenContract     domain.Address
	TokenId           domain.TokenId
	Currency          domain.Address
	ReservePrice      *big.Int
	Duration          time.Duration
	ExtensionDuration time.Duration
	MinBidIncrement   uint16
}

// UseCase is the market engine. Every mutating call is made on behalf of caller,
// sentValue is the native coin attached to the call.
type UseCase interface {
	CreateSellOrder(ctx ctx.Ctx, caller domain.Address, params CreateSellOrderParams) (*Order, error)
	UpdateSellOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64, price *big.Int) (*Order, error)
	CreateAuctionOrder(ctx ctx.Ctx, caller domain.Address, params CreateAuctionOrderParams) (*Order, error)
	UpdateAuctionOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64, reservePrice *big.Int) (*Order, error)
	CancelOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64) error
	CreateBuyOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64, sentValue *big.Int) (*Order, error)
	CreateBidOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64, price *big.Int, sentValue *big.Int) (*Order, error)
	FinalizeAuctionOrder(ctx ctx.Ctx, caller domain.Address, orderId uint64) (*Order, error)

	GetOrder(ctx ctx.Ctx, orderId uint64) (*Order, error)
	FindOrders(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Order, error)
	CountOrders(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	FindEvents(ctx ctx.Ctx, opts ...EventFindAllOptionsFunc) ([]*Event, error)

	// Address is the custody principal holding listed tokens and bid escrow
	Address() domain.Address
}
