package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/x-xyz/gomarket/base/abi"
	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/service/chain"
)

// Erc721 reads token registry state from chain
type Erc721 struct {
	chainService chain.Client
	chainId      int32
	abi          ethabi.ABI
}

func NewErc721(chainService chain.Client, chainId int32) *Erc721 {
	return &Erc721{
		abi:          baseabi.ERC721ABI,
		chainService: chainService,
		chainId:      chainId,
	}
}

func (e *Erc721) SupportsInterface(ctx bCtx.Ctx, contract domain.Address, interfaceId string) (bool, error) {
	var id [4]byte
	copy(id[:], common.FromHex(interfaceId))
	unpacked, err := e.chainService.Call(ctx, e.chainId, contract.ToCommon(), nil, e.abi, "supportsInterface", id)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) OwnerOf(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	return e.addressByToken(ctx, contract, "ownerOf", tokenId)
}

func (e *Erc721) GetApproved(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	return e.addressByToken(ctx, contract, "getApproved", tokenId)
}

func (e *Erc721) IsApprovedForAll(ctx bCtx.Ctx, contract domain.Address, owner, operator domain.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, contract.ToCommon(), nil, e.abi, "isApprovedForAll", owner.ToCommon(), operator.ToCommon())
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) addressByToken(ctx bCtx.Ctx, contract domain.Address, method string, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.BigInt()
	if err != nil {
		return "", err
	}
	unpacked, err := e.chainService.Call(ctx, e.chainId, contract.ToCommon(), nil, e.abi, method, id)
	if err != nil {
		return "", err
	}
	return domain.AddressFromCommon(unpacked[0].(common.Address)), nil
}

// tokenIdArg is shared by the royalty readers
func tokenIdArg(tokenId domain.TokenId) (*big.Int, error) {
	return tokenId.BigInt()
}
