package currency

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/stores/ledger/repository"
)

const (
	escrow = domain.Address("0x1a01ecd2263a9d5b5967667e508ea22db478bc4b")
	weth   = domain.Address("0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6")
	erc20  = domain.Address("0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268")
	buyer  = domain.Address("0xce4468e7ce84aceb74363f4ea64e5a038176f369")
	seller = domain.Address("0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad")
)

type currencySuite struct {
	suite.Suite
	ctx    ctx.Ctx
	ledger *repository.MemoryLedger
	svc    Service
}

func TestCurrencySuite(t *testing.T) {
	suite.Run(t, new(currencySuite))
}

func (s *currencySuite) SetupTest() {
	s.ctx = ctx.Background()
	s.ledger = repository.NewMemoryLedger(weth)
	s.ledger.Deal(domain.NativeCurrency, buyer, big.NewInt(1000))
	s.ledger.Deal(erc20, buyer, big.NewInt(1000))
	s.svc = NewService(&ServiceCfg{Ledger: s.ledger, Escrow: escrow})
}

func (s *currencySuite) balance(token, account domain.Address) int64 {
	if token.IsNative() {
		b, err := s.ledger.Native().BalanceOf(s.ctx, account)
		s.Require().NoError(err)
		return b.Int64()
	}
	b, err := s.ledger.Tokens().BalanceOf(s.ctx, token, account)
	s.Require().NoError(err)
	return b.Int64()
}

func (s *currencySuite) TestAdapterSelection() {
	a, err := s.svc.Adapter(domain.NativeCurrency)
	s.NoError(err)
	s.Equal(domain.NativeCurrency, a.Currency())

	a, err = s.svc.Adapter("")
	s.NoError(err)
	s.Equal(domain.NativeCurrency, a.Currency())

	a, err = s.svc.Adapter("0x07FE9FFD85B54A3A18467D3B5E91A55ECC52A268")
	s.NoError(err)
	s.Equal(erc20, a.Currency())

	_, err = s.svc.Adapter("weth")
	s.ErrorIs(err, order.ErrInvalidCurrency)
}

func (s *currencySuite) TestNativePull() {
	a, _ := s.svc.Adapter(domain.NativeCurrency)

	s.ErrorIs(a.Pull(s.ctx, buyer, big.NewInt(100), big.NewInt(99)), order.ErrSentValueMismatch)
	s.ErrorIs(a.Pull(s.ctx, buyer, big.NewInt(100), big.NewInt(101)), order.ErrSentValueMismatch)
	s.NoError(a.Pull(s.ctx, buyer, big.NewInt(100), big.NewInt(100)))

	s.Equal(int64(900), s.balance(domain.NativeCurrency, buyer))
	s.Equal(int64(100), s.balance(domain.NativeCurrency, escrow))
}

func (s *currencySuite) TestNativePushFallsBackToWrapper() {
	a, _ := s.svc.Adapter(domain.NativeCurrency)
	s.ledger.Deal(domain.NativeCurrency, escrow, big.NewInt(100))
	s.ledger.SetReceiveHook(seller, func(c ctx.Ctx, from domain.Address, amount *big.Int) error {
		return errors.New("revert")
	})

	payout, err := a.Push(s.ctx, seller, big.NewInt(60))
	s.NoError(err)
	s.True(payout.Wrapped)
	s.Equal(int64(60), payout.Amount.Int64())
	s.Equal(int64(0), s.balance(domain.NativeCurrency, seller))
	s.Equal(int64(60), s.balance(weth, seller))
	s.Equal(int64(40), s.balance(domain.NativeCurrency, escrow))

	// escrow can not cover the wrap either
	_, err = a.Refund(s.ctx, seller, big.NewInt(41))
	s.ErrorIs(err, ledger.ErrInsufficientNative)
}

func (s *currencySuite) TestNativePushZero() {
	a, _ := s.svc.Adapter(domain.NativeCurrency)
	payout, err := a.Push(s.ctx, seller, big.NewInt(0))
	s.NoError(err)
	s.False(payout.Wrapped)
	s.Equal(int64(0), payout.Amount.Int64())
}

func (s *currencySuite) TestTokenPullPush() {
	a, _ := s.svc.Adapter(erc20)

	s.ErrorIs(a.Pull(s.ctx, buyer, big.NewInt(100), big.NewInt(1)), order.ErrUnexpectedSentValue)
	s.ErrorIs(a.Pull(s.ctx, buyer, big.NewInt(100), nil), ledger.ErrInsufficientAllowance)

	s.NoError(s.ledger.Tokens().Approve(s.ctx, erc20, buyer, escrow, big.NewInt(2000)))
	s.ErrorIs(a.Pull(s.ctx, buyer, big.NewInt(1001), nil), ledger.ErrInsufficientBalance)
	s.NoError(a.Pull(s.ctx, buyer, big.NewInt(100), big.NewInt(0)))
	s.Equal(int64(100), s.balance(erc20, escrow))

	payout, err := a.Push(s.ctx, seller, big.NewInt(70))
	s.NoError(err)
	s.False(payout.Wrapped)
	s.Equal(int64(70), s.balance(erc20, seller))

	_, err = a.Refund(s.ctx, buyer, big.NewInt(31))
	s.ErrorIs(err, ledger.ErrInsufficientBalance)
}
