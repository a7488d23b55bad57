package usecase

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/market"
)

type MarketUseCaseCfg struct {
	Repo          market.SettingsRepo
	Owner         domain.Address
	Treasury      domain.Address
	WrappedNative domain.Address
	// FeeBps falls back to market.DefaultFeeBps when nil
	FeeBps *uint16
	Clock  clock.Clock
}

type impl struct {
	mu       sync.Mutex
	repo     market.SettingsRepo
	defaults market.Settings
	clock    clock.Clock
}

func New(cfg *MarketUseCaseCfg) market.UseCase {
	d := market.Settings{
		Owner:         cfg.Owner.ToLower(),
		Treasury:      cfg.Treasury.ToLower(),
		WrappedNative: cfg.WrappedNative.ToLower(),
		FeeBps:        market.DefaultFeeBps,
	}
	if d.Treasury.IsEmpty() {
		d.Treasury = d.Owner
	}
	if cfg.FeeBps != nil {
		d.FeeBps = *cfg.FeeBps
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &impl{repo: cfg.Repo, defaults: d, clock: c}
}

func (im *impl) GetSettings(c ctx.Ctx) (*market.Settings, error) {
	s, err := im.repo.Get(c)
	if err == domain.ErrNotFound {
		d := im.defaults
		return &d, nil
	} else if err != nil {
		c.WithField("err", err).Error("repo.Get failed")
		return nil, err
	}
	return s, nil
}

func (im *impl) SetMarketTreasury(c ctx.Ctx, caller domain.Address, treasury domain.Address) (*market.Settings, error) {
	return im.update(c, caller, func(s *market.Settings) error {
		if treasury.IsEmpty() || !treasury.IsValid() {
			return market.ErrZeroTreasury
		}
		s.Treasury = treasury.ToLower()
		return nil
	})
}

func (im *impl) SetMarketFee(c ctx.Ctx, caller domain.Address, feeBps uint16) (*market.Settings, error) {
	return im.update(c, caller, func(s *market.Settings) error {
		if feeBps > domain.BasisPointsDenominator {
			return market.ErrFeeTooHigh
		}
		s.FeeBps = feeBps
		return nil
	})
}

// update checks the owner before apply validates and changes the settings
func (im *impl) update(c ctx.Ctx, caller domain.Address, apply func(*market.Settings) error) (*market.Settings, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	s, err := im.GetSettings(c)
	if err != nil {
		return nil, err
	}
	if !s.Owner.Equals(caller) {
		return nil, market.ErrNotOwner
	}

	if err := apply(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = im.clock.Now()
	if err := im.repo.Save(c, s); err != nil {
		c.WithFields(log.Fields{"err": err, "settings": s}).Error("repo.Save failed")
		return nil, err
	}
	c.WithFields(log.Fields{"treasury": s.Treasury, "feeBps": s.FeeBps}).Info("market settings updated")
	return s, nil
}
