package order

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gomarket/domain"
)

func bigStr(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return n
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		price      *big.Int
		feeBps     uint16
		royaltyBps uint16
		market     int64
		creator    int64
		owner      int64
	}{
		{name: "price below one bps", price: big.NewInt(1), feeBps: 500, market: 0, creator: 0, owner: 1},
		{name: "remainder goes to owner", price: big.NewInt(9999), feeBps: 500, royaltyBps: 500, market: 499, creator: 499, owner: 9001},
		{name: "fee only", price: big.NewInt(1000000), feeBps: 500, market: 50000, creator: 0, owner: 950000},
		{name: "full fee leaves no royalty", price: big.NewInt(12345), feeBps: 10000, royaltyBps: 500, market: 12345, creator: 0, owner: 0},
		{name: "fee above denominator", price: big.NewInt(12345), feeBps: 20000, market: 12345, creator: 0, owner: 0},
		{name: "royalty clamped to what fee leaves", price: big.NewInt(10001), feeBps: 500, royaltyBps: 9800, market: 500, creator: 9500, owner: 1},
		{name: "no fee no royalty", price: big.NewInt(777), market: 0, creator: 0, owner: 777},
		{name: "nil price", price: nil},
		{name: "zero price", price: big.NewInt(0), feeBps: 500, royaltyBps: 500},
		{name: "negative price", price: big.NewInt(-5), feeBps: 500, royaltyBps: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			market, creator, owner := Split(tt.price, tt.feeBps, tt.royaltyBps)
			req.Equal(tt.market, market.Int64())
			req.Equal(tt.creator, creator.Int64())
			req.Equal(tt.owner, owner.Int64())

			sum := new(big.Int).Add(market, creator)
			sum.Add(sum, owner)
			if tt.price != nil && tt.price.Sign() > 0 {
				req.Equal(0, sum.Cmp(tt.price))
			} else {
				req.Equal(0, sum.Sign())
			}
		})
	}
}

func TestSplitWei(t *testing.T) {
	req := require.New(t)
	market, creator, owner := Split(bigStr("1000000000000000000"), 500, 500)
	req.Equal("50000000000000000", market.String())
	req.Equal("50000000000000000", creator.String())
	req.Equal("900000000000000000", owner.String())

	price := bigStr("1234567890123456789")
	market, creator, owner = Split(price, 250, 333)
	req.Equal("30864197253086419", market.String())
	req.Equal("41111110741111111", creator.String())
	sum := new(big.Int).Add(market, creator)
	req.Equal(0, sum.Add(sum, owner).Cmp(price))
}

func TestNewDistribution(t *testing.T) {
	recipient := domain.Address("0x3d0e61b7f4e4e9d3c9a0c0de84a73f6b1c2d7a11")
	tests := []struct {
		name      string
		recipient domain.Address
		creator   int64
		owner     int64
	}{
		{name: "with recipient", recipient: recipient, creator: 500, owner: 9000},
		{name: "empty recipient gets nothing", recipient: "", creator: 0, owner: 9500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			d := NewDistribution(big.NewInt(10000), 500, tt.recipient, 500)
			req.Equal(int64(500), d.Market.Int64())
			req.Equal(tt.creator, d.Creator.Int64())
			req.Equal(tt.owner, d.Owner.Int64())
			req.Equal(tt.recipient, d.RoyaltyRecipient)
		})
	}
}
