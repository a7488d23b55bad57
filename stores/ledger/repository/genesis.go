package repository

import (
	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/royalty"
)

type GenesisBalance struct {
	Account domain.Address `mapstructure:"account"`
	// Token is empty for the native coin
	Token  domain.Address `mapstructure:"token"`
	Amount string         `mapstructure:"amount"`
}

type GenesisRoyalty struct {
	Schema    royalty.Schema `mapstructure:"schema"`
	Recipient domain.Address `mapstructure:"recipient"`
	Bps       uint16         `mapstructure:"bps"`
}

type GenesisCollection struct {
	Address domain.Address `mapstructure:"address"`
	// Tokens maps token id to its first owner
	Tokens  map[string]domain.Address `mapstructure:"tokens"`
	Royalty *GenesisRoyalty           `mapstructure:"royalty"`
}

// GenesisOperator approves Operator for every token Owner holds in Contract
type GenesisOperator struct {
	Contract domain.Address `mapstructure:"contract"`
	Owner    domain.Address `mapstructure:"owner"`
	Operator domain.Address `mapstructure:"operator"`
}

type GenesisAllowance struct {
	Token   domain.Address `mapstructure:"token"`
	Owner   domain.Address `mapstructure:"owner"`
	Spender domain.Address `mapstructure:"spender"`
	Amount  string         `mapstructure:"amount"`
}

// Genesis is the initial state of a simulated ledger, loaded from the ledger.genesis config section
type Genesis struct {
	Balances    []GenesisBalance    `mapstructure:"balances"`
	Collections []GenesisCollection `mapstructure:"collections"`
	Operators   []GenesisOperator   `mapstructure:"operators"`
	Allowances  []GenesisAllowance  `mapstructure:"allowances"`
}

// Apply deploys and funds everything g describes
func (l *MemoryLedger) Apply(g Genesis) error {
	for _, c := range g.Collections {
		l.DeployCollection(c.Address, ledger.InterfaceIdERC721)
		if c.Royalty != nil {
			if err := l.SetRoyalty(c.Address, c.Royalty.Schema, c.Royalty.Recipient, c.Royalty.Bps); err != nil {
				log.Log().WithFields(log.Fields{"err": err, "contract": c.Address}).Error("SetRoyalty failed")
				return err
			}
		}
		for tokenId, owner := range c.Tokens {
			if err := l.Mint(c.Address, domain.TokenId(tokenId), owner); err != nil {
				log.Log().WithFields(log.Fields{"err": err, "contract": c.Address, "tokenId": tokenId}).Error("Mint failed")
				return err
			}
		}
	}
	for _, b := range g.Balances {
		amount, err := domain.ParseAmount(b.Amount)
		if err != nil {
			log.Log().WithFields(log.Fields{"err": err, "account": b.Account}).Error("domain.ParseAmount failed")
			return err
		}
		l.Deal(b.Token, b.Account, amount)
	}
	for _, o := range g.Operators {
		if err := l.SetApprovalForAll(o.Contract, o.Owner, o.Operator, true); err != nil {
			log.Log().WithFields(log.Fields{"err": err, "contract": o.Contract, "owner": o.Owner}).Error("SetApprovalForAll failed")
			return err
		}
	}
	for _, a := range g.Allowances {
		amount, err := domain.ParseAmount(a.Amount)
		if err != nil {
			log.Log().WithFields(log.Fields{"err": err, "owner": a.Owner}).Error("domain.ParseAmount failed")
			return err
		}
		if err := l.Tokens().Approve(bCtx.Background(), a.Token, a.Owner, a.Spender, amount); err != nil {
			log.Log().WithFields(log.Fields{"err": err, "token": a.Token, "owner": a.Owner}).Error("Approve failed")
			return err
		}
	}
	return nil
}
