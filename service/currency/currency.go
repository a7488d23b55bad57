package currency

import (
	"math/big"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

// Payout is what actually reached the recipient
type Payout struct {
	Recipient domain.Address
	Amount    *big.Int
	// Wrapped is set when a native payment was delivered as wrapped token instead
	Wrapped bool
}

// Adapter moves one currency in and out of the market escrow
type Adapter interface {
	Currency() domain.Address
	// Pull takes amount from payer into escrow. sentValue is the native coin attached to the call.
	Pull(ctx ctx.Ctx, from domain.Address, amount *big.Int, sentValue *big.Int) error
	// Push pays amount out of escrow
	Push(ctx ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error)
	// Refund returns an outbid amount, it never blocks the new bid unless wrapping fails too
	Refund(ctx ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error)
}

type Service interface {
	Adapter(currency domain.Address) (Adapter, error)
}
