package royalty

import (
	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/keys"
	"github.com/x-xyz/gomarket/domain/royalty"
	"github.com/x-xyz/gomarket/service/cache"
)

type cached struct {
	source royalty.Source
	cache  cache.Service
}

// NewCached remembers lookups of source per token in c
func NewCached(source royalty.Source, c cache.Service) royalty.Source {
	return &cached{source: source, cache: c}
}

func (im *cached) GetRoyalty(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*royalty.Info, error) {
	info := &royalty.Info{}
	key := keys.CustomKey(":", contract.ToLowerStr(), tokenId.String())
	if err := im.cache.GetByFunc(c, key, info, func() (interface{}, error) {
		return im.source.GetRoyalty(c, contract, tokenId)
	}); err != nil {
		return nil, err
	}
	return info, nil
}
