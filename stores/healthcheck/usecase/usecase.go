package usecase

import (
	"github.com/x-xyz/gomarket/base/ctx"
	hcdomain "github.com/x-xyz/gomarket/domain/healthcheck"
	"github.com/x-xyz/gomarket/domain/market"
)

type impl struct {
	repo   hcdomain.HealthCheckRepo
	market market.UseCase
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo, market market.UseCase) hcdomain.HealthCheckUsecase {
	return &impl{
		repo:   repo,
		market: market,
	}
}

func (im *impl) Check(context ctx.Ctx) error {
	if err := im.repo.PingDB(context); err != nil {
		return err
	}
	if _, err := im.market.GetSettings(context); err != nil {
		context.WithField("err", err).Error("market.GetSettings failed")
		return err
	}
	return nil
}
