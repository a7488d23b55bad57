package royalty

import (
	"math/big"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/royalty"
)

var maxBps = big.NewInt(domain.BasisPointsDenominator)

type schemaReader struct {
	schema      royalty.Schema
	interfaceId string
	read        func(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error)
}

type strategy struct {
	prober  royalty.InterfaceProber
	schemas []schemaReader
}

// New probes schemas in preference order modern, legacy v2, legacy v1 and reads the first one supported
func New(reader royalty.Reader) royalty.Source {
	modern := func(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
		// amount against a sale price of 10000 is the rate in basis points
		return reader.RoyaltyInfo(c, contract, tokenId, royalty.ProbePrice)
	}
	return &strategy{
		prober: reader,
		schemas: []schemaReader{
			{royalty.SchemaModern, ledger.InterfaceIdERC2981, modern},
			{royalty.SchemaLegacyV2, ledger.InterfaceIdRoyaltyV2, reader.RoyaltyInfoBps},
			{royalty.SchemaLegacyV1, ledger.InterfaceIdRoyaltyV1, reader.GetRoyalty},
		},
	}
}

func (s *strategy) GetRoyalty(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*royalty.Info, error) {
	for _, schema := range s.schemas {
		ok, err := s.prober.SupportsInterface(c, contract, schema.interfaceId)
		if err != nil {
			// a reverting probe means the interface is absent
			c.WithFields(log.Fields{"err": err, "contract": contract, "schema": schema.schema}).Warn("SupportsInterface failed")
			continue
		}
		if !ok {
			continue
		}

		recipient, bps, err := schema.read(c, contract, tokenId)
		if err != nil {
			c.WithFields(log.Fields{
				"err":      err,
				"contract": contract,
				"tokenId":  tokenId,
				"schema":   schema.schema,
			}).Error("read royalty failed")
			return nil, err
		}
		if recipient.IsEmpty() || bps == nil || bps.Sign() <= 0 {
			return royalty.None(), nil
		}
		if bps.Cmp(maxBps) > 0 {
			bps = maxBps
		}
		return &royalty.Info{Schema: schema.schema, Recipient: recipient.ToLower(), Bps: uint16(bps.Uint64())}, nil
	}
	return royalty.None(), nil
}
