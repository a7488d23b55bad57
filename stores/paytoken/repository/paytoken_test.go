package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

func TestPayTokenRepo(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	r := NewPayTokenRepo([]*domain.PayToken{
		{Name: "Ether", Symbol: "ETH", TokenDecimals: 18, Address: domain.NativeCurrency},
		{Name: "USD Coin", Symbol: "USDC", TokenDecimals: 6, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
	})

	eth, err := r.FindOne(c, "")
	req.NoError(err)
	req.Equal("ETH", eth.Symbol)
	req.Equal("1.5", eth.Format(big.NewInt(1500000000000000000)))

	usdc, err := r.FindOne(c, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	req.NoError(err)
	req.Equal("0.05", usdc.Format(big.NewInt(50000)))

	_, err = r.FindOne(c, "0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268")
	req.ErrorIs(err, domain.ErrNotFound)

	all, err := r.FindAll(c)
	req.NoError(err)
	req.Len(all, 2)
}
