package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/gomarket/base/ctx"
)

type PayToken struct {
	Name          string  `json:"name" bson:"name" mapstructure:"name"`
	Symbol        string  `json:"symbol" bson:"symbol" mapstructure:"symbol"`
	TokenDecimals int32   `json:"tokenDecimals" bson:"tokenDecimals" mapstructure:"decimals"`
	Address       Address `json:"address" bson:"address" mapstructure:"address"`
}

// Format renders a raw amount in whole token units, e.g. 1500000000000000000 -> "1.5"
func (t *PayToken) Format(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -t.TokenDecimals).String()
}

type PayTokenRepo interface {
	FindOne(ctx.Ctx, Address) (*PayToken, error)
	FindAll(ctx.Ctx) ([]*PayToken, error)
}
