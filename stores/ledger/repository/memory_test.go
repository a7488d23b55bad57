package repository

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/royalty"
)

const (
	nft    = domain.Address("0xdcf0de6b17785a143d006e1515a6afd123cde8ba")
	erc20  = domain.Address("0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268")
	weth   = domain.Address("0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6")
	alice  = domain.Address("0xce4468e7ce84aceb74363f4ea64e5a038176f369")
	bob    = domain.Address("0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad")
	market = domain.Address("0x1a01ecd2263a9d5b5967667e508ea22db478bc4b")
)

type memoryLedgerSuite struct {
	suite.Suite
	ctx ctx.Ctx
	l   *MemoryLedger
}

func TestMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(memoryLedgerSuite))
}

func (s *memoryLedgerSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.l = NewMemoryLedger(weth)
	s.l.DeployCollection(nft, ledger.InterfaceIdERC721)
	s.Require().NoError(s.l.Mint(nft, "1", alice))
	s.l.Deal(domain.NativeCurrency, alice, big.NewInt(100))
	s.l.Deal(erc20, alice, big.NewInt(1000))
}

func (s *memoryLedgerSuite) TestSupportsInterface() {
	ok, err := s.l.Registry().SupportsInterface(s.ctx, nft, ledger.InterfaceIdERC721)
	s.NoError(err)
	s.True(ok)

	ok, err = s.l.Registry().SupportsInterface(s.ctx, nft, ledger.InterfaceIdERC2981)
	s.NoError(err)
	s.False(ok)

	ok, err = s.l.Registry().SupportsInterface(s.ctx, erc20, ledger.InterfaceIdERC721)
	s.NoError(err)
	s.False(ok)
}

func (s *memoryLedgerSuite) TestAssetTransfer() {
	r := s.l.Registry()

	_, err := r.OwnerOf(s.ctx, nft, "2")
	s.ErrorIs(err, ledger.ErrNonexistentToken)

	s.ErrorIs(r.TransferFrom(s.ctx, nft, market, alice, market, "1"), ledger.ErrNotOwnerNorApproved)

	s.NoError(s.l.SetApprovalForAll(nft, alice, market, true))
	s.ErrorIs(r.TransferFrom(s.ctx, nft, market, bob, market, "1"), ledger.ErrTransferFromIncorrect)
	s.ErrorIs(r.TransferFrom(s.ctx, nft, market, alice, domain.EmptyAddress, "1"), ledger.ErrTransferToZero)
	s.NoError(r.TransferFrom(s.ctx, nft, market, alice, market, "1"))

	owner, err := r.OwnerOf(s.ctx, nft, "1")
	s.NoError(err)
	s.Equal(market, owner)
}

func (s *memoryLedgerSuite) TestSingleApprovalIsCleared() {
	r := s.l.Registry()
	s.NoError(s.l.Approve(nft, alice, market, "1"))

	approved, err := r.GetApproved(s.ctx, nft, "1")
	s.NoError(err)
	s.Equal(market, approved)

	s.NoError(r.TransferFrom(s.ctx, nft, market, alice, bob, "1"))
	approved, err = r.GetApproved(s.ctx, nft, "1")
	s.NoError(err)
	s.Equal(domain.EmptyAddress, approved)
}

func (s *memoryLedgerSuite) TestNativeTransfer() {
	n := s.l.Native()
	s.ErrorIs(n.Transfer(s.ctx, alice, bob, big.NewInt(101)), ledger.ErrInsufficientNative)
	s.NoError(n.Transfer(s.ctx, alice, bob, big.NewInt(40)))

	bal, _ := n.BalanceOf(s.ctx, alice)
	s.Equal(int64(60), bal.Int64())
	bal, _ = n.BalanceOf(s.ctx, bob)
	s.Equal(int64(40), bal.Int64())
}

func (s *memoryLedgerSuite) TestReceiveHookRejects() {
	s.l.SetReceiveHook(bob, func(c ctx.Ctx, from domain.Address, amount *big.Int) error {
		return errors.New("no thanks")
	})
	s.ErrorIs(s.l.Native().Transfer(s.ctx, alice, bob, big.NewInt(1)), ledger.ErrPaymentRejected)

	bal, _ := s.l.Native().BalanceOf(s.ctx, alice)
	s.Equal(int64(100), bal.Int64())

	s.l.SetReceiveHook(bob, nil)
	s.NoError(s.l.Native().Transfer(s.ctx, alice, bob, big.NewInt(1)))
}

func (s *memoryLedgerSuite) TestTokenTransferFrom() {
	t := s.l.Tokens()
	s.ErrorIs(t.TransferFrom(s.ctx, erc20, market, alice, market, big.NewInt(10)), ledger.ErrInsufficientAllowance)
	s.ErrorIs(t.TransferFrom(s.ctx, erc20, market, alice, market, big.NewInt(1001)), ledger.ErrInsufficientBalance)

	s.NoError(t.Approve(s.ctx, erc20, alice, market, big.NewInt(500)))
	s.NoError(t.TransferFrom(s.ctx, erc20, market, alice, market, big.NewInt(300)))

	allowance, _ := t.Allowance(s.ctx, erc20, alice, market)
	s.Equal(int64(200), allowance.Int64())
	bal, _ := t.BalanceOf(s.ctx, erc20, market)
	s.Equal(int64(300), bal.Int64())
}

func (s *memoryLedgerSuite) TestDepositFor() {
	s.NoError(s.l.Wrapper().DepositFor(s.ctx, alice, bob, big.NewInt(30)))

	bal, _ := s.l.Native().BalanceOf(s.ctx, alice)
	s.Equal(int64(70), bal.Int64())
	bal, _ = s.l.Tokens().BalanceOf(s.ctx, weth, bob)
	s.Equal(int64(30), bal.Int64())
	s.Equal(weth, s.l.Wrapper().Address())
}

func (s *memoryLedgerSuite) TestRunInTransactionRevert() {
	boom := errors.New("boom")
	err := s.l.RunInTransaction(s.ctx, func(c ctx.Ctx) error {
		if err := s.l.Native().Transfer(c, alice, bob, big.NewInt(50)); err != nil {
			return err
		}
		if err := s.l.Registry().TransferFrom(c, nft, alice, alice, bob, "1"); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	bal, _ := s.l.Native().BalanceOf(s.ctx, alice)
	s.Equal(int64(100), bal.Int64())
	owner, _ := s.l.Registry().OwnerOf(s.ctx, nft, "1")
	s.Equal(alice, owner)
}

func (s *memoryLedgerSuite) TestRoyaltySchemas() {
	recipient := domain.Address("0x54a769173d97432a48371b022709117c090298e3")
	r := s.l.Royalty()

	s.NoError(s.l.SetRoyalty(nft, royalty.SchemaModern, recipient, 250))
	ok, _ := r.SupportsInterface(s.ctx, nft, ledger.InterfaceIdERC2981)
	s.True(ok)
	to, amount, err := r.RoyaltyInfo(s.ctx, nft, "1", royalty.ProbePrice)
	s.NoError(err)
	s.Equal(recipient, to)
	s.Equal(int64(250), amount.Int64())

	s.NoError(s.l.SetRoyalty(nft, royalty.SchemaLegacyV1, recipient, 300))
	to, bps, err := r.GetRoyalty(s.ctx, nft, "1")
	s.NoError(err)
	s.Equal(recipient, to)
	s.Equal(int64(300), bps.Int64())

	s.ErrorIs(s.l.SetRoyalty(erc20, royalty.SchemaLegacyV2, recipient, 1), ledger.ErrUnknownContract)
}

func (s *memoryLedgerSuite) TestApplyGenesis() {
	l := NewMemoryLedger(weth)
	s.NoError(l.Apply(Genesis{
		Balances: []GenesisBalance{
			{Account: alice, Amount: "1000000000000000000"},
			{Account: bob, Token: erc20, Amount: "5"},
		},
		Collections: []GenesisCollection{
			{
				Address: nft,
				Tokens:  map[string]domain.Address{"7": bob},
				Royalty: &GenesisRoyalty{Schema: royalty.SchemaLegacyV2, Recipient: alice, Bps: 500},
			},
		},
		Operators:  []GenesisOperator{{Contract: nft, Owner: bob, Operator: market}},
		Allowances: []GenesisAllowance{{Token: erc20, Owner: bob, Spender: market, Amount: "3"}},
	}))

	owner, err := l.Registry().OwnerOf(s.ctx, nft, "7")
	s.NoError(err)
	s.Equal(bob, owner)
	bal, _ := l.Native().BalanceOf(s.ctx, alice)
	s.Equal("1000000000000000000", bal.String())
	bal, _ = l.Tokens().BalanceOf(s.ctx, erc20, bob)
	s.Equal(int64(5), bal.Int64())
	ok, _ := l.Registry().SupportsInterface(s.ctx, nft, ledger.InterfaceIdRoyaltyV2)
	s.True(ok)
	ok, _ = l.Registry().IsApprovedForAll(s.ctx, nft, bob, market)
	s.True(ok)
	allowance, _ := l.Tokens().Allowance(s.ctx, erc20, bob, market)
	s.Equal(int64(3), allowance.Int64())

	s.Error(l.Apply(Genesis{Balances: []GenesisBalance{{Account: alice, Amount: "-1"}}}))
}
