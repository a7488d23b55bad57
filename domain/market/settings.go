package market

import (
	"errors"
	"time"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

const DefaultFeeBps uint16 = 500

var (
	ErrNotOwner     = errors.New("Ownable: caller is not the owner")
	ErrFeeTooHigh   = errors.New("Market: fee cannot exceed 10000 basis points")
	ErrZeroTreasury = errors.New("Market: treasury cannot be the zero address")
)

type Settings struct {
	Owner         domain.Address `json:"owner" bson:"owner"`
	Treasury      domain.Address `json:"treasury" bson:"treasury"`
	WrappedNative domain.Address `json:"wrappedNative" bson:"wrappedNative"`
	FeeBps        uint16         `json:"feeBps" bson:"feeBps"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type SettingsRepo interface {
	// Get returns domain.ErrNotFound before the first Save
	Get(ctx ctx.Ctx) (*Settings, error)
	Save(ctx ctx.Ctx, s *Settings) error
}

type UseCase interface {
	GetSettings(ctx ctx.Ctx) (*Settings, error)
	SetMarketTreasury(ctx ctx.Ctx, caller domain.Address, treasury domain.Address) (*Settings, error)
	SetMarketFee(ctx ctx.Ctx, caller domain.Address, feeBps uint16) (*Settings, error)
}
