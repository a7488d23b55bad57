package order

import (
	"math/big"

	"github.com/x-xyz/gomarket/domain"
)

// Distribution is how a sale price is paid out
type Distribution struct {
	Market           *big.Int
	Creator          *big.Int
	Owner            *big.Int
	RoyaltyRecipient domain.Address
}

// Split divides price into market fee, creator royalty and the remainder for the owner.
// Both portions round down so market + creator + owner == price always holds.
// royaltyBps is clamped to what the fee leaves over.
func Split(price *big.Int, feeBps uint16, royaltyBps uint16) (market, creator, owner *big.Int) {
	if price == nil || price.Sign() <= 0 {
		return new(big.Int), new(big.Int), new(big.Int)
	}

	fee := uint64(feeBps)
	if fee > domain.BasisPointsDenominator {
		fee = domain.BasisPointsDenominator
	}
	royalty := uint64(royaltyBps)
	if royalty > domain.BasisPointsDenominator-fee {
		royalty = domain.BasisPointsDenominator - fee
	}

	market = portion(price, fee)
	creator = portion(price, royalty)
	owner = new(big.Int).Sub(price, market)
	owner.Sub(owner, creator)
	return market, creator, owner
}

// NewDistribution splits price, a zero royalty recipient gets nothing
func NewDistribution(price *big.Int, feeBps uint16, recipient domain.Address, royaltyBps uint16) *Distribution {
	if recipient.IsEmpty() {
		royaltyBps = 0
		recipient = ""
	}
	market, creator, owner := Split(price, feeBps, royaltyBps)
	return &Distribution{
		Market:           market,
		Creator:          creator,
		Owner:            owner,
		RoyaltyRecipient: recipient,
	}
}

func portion(price *big.Int, bps uint64) *big.Int {
	res := new(big.Int).Mul(price, new(big.Int).SetUint64(bps))
	return res.Quo(res, domain.Big10000)
}
