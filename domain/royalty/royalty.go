package royalty

import (
	"math/big"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

// Schema identifies how a token contract reports royalties
type Schema string

const (
	SchemaNone Schema = "none"
	// SchemaModern is ERC2981 royaltyInfo(tokenId, salePrice) -> (recipient, amount)
	SchemaModern Schema = "modern"
	// SchemaLegacyV2 is royaltyInfo(tokenId) -> (recipient, bps)
	SchemaLegacyV2 Schema = "legacy_v2"
	// SchemaLegacyV1 is getRoyalty(tokenId) -> (recipient, bps)
	SchemaLegacyV1 Schema = "legacy_v1"
)

// ProbePrice is the sale price used to turn an absolute ERC2981 amount into basis points
var ProbePrice = big.NewInt(domain.BasisPointsDenominator)

type Info struct {
	Schema    Schema         `json:"schema"`
	Recipient domain.Address `json:"recipient"`
	Bps       uint16         `json:"bps"`
}

// None is returned for contracts without royalty support
func None() *Info {
	return &Info{Schema: SchemaNone}
}

// Source resolves the royalty owed for a token
type Source interface {
	GetRoyalty(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*Info, error)
}

// InterfaceProber answers ERC165 style capability queries
type InterfaceProber interface {
	SupportsInterface(ctx ctx.Ctx, contract domain.Address, interfaceId string) (bool, error)
}

type ModernReader interface {
	RoyaltyInfo(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error)
}

type LegacyV2Reader interface {
	RoyaltyInfoBps(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error)
}

type LegacyV1Reader interface {
	GetRoyalty(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error)
}

// Reader is everything a royalty strategy may ask a token contract
type Reader interface {
	InterfaceProber
	ModernReader
	LegacyV2Reader
	LegacyV1Reader
}
