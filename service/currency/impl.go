package currency

import (
	"math/big"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/order"
)

var met = metrics.New("currency")

type ServiceCfg struct {
	Ledger ledger.Ledger
	// Escrow is the principal holding market funds
	Escrow domain.Address
}

type impl struct {
	native Adapter
	ledger ledger.Ledger
	escrow domain.Address
}

func NewService(cfg *ServiceCfg) Service {
	escrow := cfg.Escrow.ToLower()
	return &impl{
		native: &nativeAdapter{ledger: cfg.Ledger, escrow: escrow},
		ledger: cfg.Ledger,
		escrow: escrow,
	}
}

func (im *impl) Adapter(currency domain.Address) (Adapter, error) {
	if currency.IsNative() {
		return im.native, nil
	}
	if !currency.IsValid() {
		return nil, order.ErrInvalidCurrency
	}
	return &tokenAdapter{token: currency.ToLower(), ledger: im.ledger, escrow: im.escrow}, nil
}

type nativeAdapter struct {
	ledger ledger.Ledger
	escrow domain.Address
}

func (a *nativeAdapter) Currency() domain.Address {
	return domain.NativeCurrency
}

func (a *nativeAdapter) Pull(c ctx.Ctx, from domain.Address, amount *big.Int, sentValue *big.Int) error {
	if domain.CopyBig(sentValue).Cmp(domain.CopyBig(amount)) != 0 {
		return order.ErrSentValueMismatch
	}
	if domain.IsZero(amount) {
		return nil
	}
	if err := a.ledger.Native().Transfer(c, from, a.escrow, amount); err != nil {
		c.WithFields(log.Fields{"err": err, "from": from, "amount": amount.String()}).Error("native.Transfer failed")
		return err
	}
	return nil
}

// Push falls back to wrapping when the recipient cannot take native coin
func (a *nativeAdapter) Push(c ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error) {
	payout := &Payout{Recipient: to, Amount: domain.CopyBig(amount)}
	if domain.IsZero(amount) {
		return payout, nil
	}
	err := a.ledger.Native().Transfer(c, a.escrow, to, amount)
	if err == nil {
		return payout, nil
	}

	c.WithFields(log.Fields{"err": err, "to": to, "amount": amount.String()}).Warn("native push failed, wrapping")
	if err := a.ledger.Wrapper().DepositFor(c, a.escrow, to, amount); err != nil {
		c.WithFields(log.Fields{"err": err, "to": to, "amount": amount.String()}).Error("wrapper.DepositFor failed")
		return nil, err
	}
	met.BumpSum("payment.wrapped", 1)
	payout.Wrapped = true
	return payout, nil
}

func (a *nativeAdapter) Refund(c ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error) {
	return a.Push(c, to, amount)
}

type tokenAdapter struct {
	token  domain.Address
	ledger ledger.Ledger
	escrow domain.Address
}

func (a *tokenAdapter) Currency() domain.Address {
	return a.token
}

func (a *tokenAdapter) Pull(c ctx.Ctx, from domain.Address, amount *big.Int, sentValue *big.Int) error {
	if !domain.IsZero(sentValue) {
		return order.ErrUnexpectedSentValue
	}
	if domain.IsZero(amount) {
		return nil
	}
	if err := a.ledger.Tokens().TransferFrom(c, a.token, a.escrow, from, a.escrow, amount); err != nil {
		c.WithFields(log.Fields{"err": err, "token": a.token, "from": from, "amount": amount.String()}).Error("tokens.TransferFrom failed")
		return err
	}
	return nil
}

func (a *tokenAdapter) Push(c ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error) {
	payout := &Payout{Recipient: to, Amount: domain.CopyBig(amount)}
	if domain.IsZero(amount) {
		return payout, nil
	}
	if err := a.ledger.Tokens().Transfer(c, a.token, a.escrow, to, amount); err != nil {
		c.WithFields(log.Fields{"err": err, "token": a.token, "to": to, "amount": amount.String()}).Error("tokens.Transfer failed")
		return nil, err
	}
	return payout, nil
}

func (a *tokenAdapter) Refund(c ctx.Ctx, to domain.Address, amount *big.Int) (*Payout, error) {
	return a.Push(c, to, amount)
}
