package ledger

import (
	"errors"
	"math/big"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

var (
	ErrNonexistentToken       = errors.New("ERC721: owner query for nonexistent token")
	ErrNotOwnerNorApproved    = errors.New("ERC721: transfer caller is not owner nor approved")
	ErrTransferFromIncorrect  = errors.New("ERC721: transfer from incorrect owner")
	ErrTransferToZero         = errors.New("ERC721: transfer to the zero address")
	ErrInsufficientBalance    = errors.New("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance  = errors.New("ERC20: insufficient allowance")
	ErrInsufficientNative     = errors.New("Address: insufficient balance")
	ErrPaymentRejected        = errors.New("Address: unable to send value, recipient may have reverted")
	ErrUnknownContract        = errors.New("Ledger: unknown contract")
	ErrTransactionInterrupted = errors.New("Ledger: transaction interrupted")
)

// Interface ids answered by SupportsInterface
const (
	InterfaceIdERC165  = "0x01ffc9a7"
	InterfaceIdERC721  = "0x80ac58cd"
	InterfaceIdERC2981 = "0x2a55205a"
	// royaltyInfo(uint256) selector, returns (recipient, bps)
	InterfaceIdRoyaltyV2 = "0xcef6d368"
	// getRoyalty(uint256) selector, returns (recipient, bps)
	InterfaceIdRoyaltyV1 = "0x1af9cf49"
)

// AssetRegistry is an ERC721 compatible token registry
type AssetRegistry interface {
	SupportsInterface(ctx ctx.Ctx, contract domain.Address, interfaceId string) (bool, error)
	OwnerOf(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error)
	GetApproved(ctx ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error)
	IsApprovedForAll(ctx ctx.Ctx, contract domain.Address, owner, operator domain.Address) (bool, error)
	// TransferFrom moves tokenId from -> to, operator must be the owner or approved
	TransferFrom(ctx ctx.Ctx, contract domain.Address, operator, from, to domain.Address, tokenId domain.TokenId) error
}

// NativeLedger holds the chain's native coin balances
type NativeLedger interface {
	BalanceOf(ctx ctx.Ctx, account domain.Address) (*big.Int, error)
	Transfer(ctx ctx.Ctx, from, to domain.Address, amount *big.Int) error
}

// TokenLedger is an ERC20 compatible fungible token ledger, keyed by token contract
type TokenLedger interface {
	BalanceOf(ctx ctx.Ctx, token domain.Address, account domain.Address) (*big.Int, error)
	Allowance(ctx ctx.Ctx, token domain.Address, owner, spender domain.Address) (*big.Int, error)
	Approve(ctx ctx.Ctx, token domain.Address, owner, spender domain.Address, amount *big.Int) error
	Transfer(ctx ctx.Ctx, token domain.Address, from, to domain.Address, amount *big.Int) error
	TransferFrom(ctx ctx.Ctx, token domain.Address, spender, from, to domain.Address, amount *big.Int) error
}

// NativeWrapper converts native coin into the wrapped token (WETH semantics)
type NativeWrapper interface {
	Address() domain.Address
	// DepositFor takes amount of native coin from `from` and credits the same amount of wrapped token to beneficiary
	DepositFor(ctx ctx.Ctx, from, beneficiary domain.Address, amount *big.Int) error
}

// Transactor runs fn atomically, every ledger change made inside fn is reverted when fn fails
type Transactor interface {
	RunInTransaction(ctx ctx.Ctx, fn func(ctx ctx.Ctx) error) error
}

// Ledger bundles the collaborators a custodian needs
type Ledger interface {
	Transactor
	Registry() AssetRegistry
	Native() NativeLedger
	Tokens() TokenLedger
	Wrapper() NativeWrapper
}

type chained []Transactor

// Chain nests transactors, the first one is outermost
func Chain(ts ...Transactor) Transactor {
	return chained(ts)
}

func (ts chained) RunInTransaction(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	if len(ts) == 0 {
		return fn(c)
	}
	return ts[0].RunInTransaction(c, func(c ctx.Ctx) error {
		return ts[1:].RunInTransaction(c, fn)
	})
}
