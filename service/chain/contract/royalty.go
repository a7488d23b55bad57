package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/x-xyz/gomarket/base/abi"
	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/royalty"
	"github.com/x-xyz/gomarket/service/chain"
)

// Royalty reads every supported royalty schema from chain
type Royalty struct {
	*Erc721
	chainService chain.Client
	chainId      int32
}

func NewRoyalty(chainService chain.Client, chainId int32) royalty.Reader {
	return &Royalty{
		Erc721:       NewErc721(chainService, chainId),
		chainService: chainService,
		chainId:      chainId,
	}
}

func (r *Royalty) RoyaltyInfo(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error) {
	id, err := tokenIdArg(tokenId)
	if err != nil {
		return "", nil, err
	}
	return r.call(ctx, contract, baseabi.ERC2981ABI, "royaltyInfo", id, salePrice)
}

func (r *Royalty) RoyaltyInfoBps(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	id, err := tokenIdArg(tokenId)
	if err != nil {
		return "", nil, err
	}
	return r.call(ctx, contract, baseabi.RoyaltyV2ABI, "royaltyInfo", id)
}

func (r *Royalty) GetRoyalty(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	id, err := tokenIdArg(tokenId)
	if err != nil {
		return "", nil, err
	}
	return r.call(ctx, contract, baseabi.RoyaltyV1ABI, "getRoyalty", id)
}

func (r *Royalty) call(ctx bCtx.Ctx, contract domain.Address, _abi ethabi.ABI, method string, params ...interface{}) (domain.Address, *big.Int, error) {
	unpacked, err := r.chainService.Call(ctx, r.chainId, contract.ToCommon(), nil, _abi, method, params...)
	if err != nil {
		return "", nil, err
	}
	return domain.AddressFromCommon(unpacked[0].(common.Address)), unpacked[1].(*big.Int), nil
}
