package mocks

import (
	mock "github.com/stretchr/testify/mock"

	ctx "github.com/x-xyz/gomarket/base/ctx"
	domain "github.com/x-xyz/gomarket/domain"
	royalty "github.com/x-xyz/gomarket/domain/royalty"
)

// Source is a mock type for the royalty.Source type
type Source struct {
	mock.Mock
}

// GetRoyalty provides a mock function with given fields: _a0, contract, tokenId
func (_m *Source) GetRoyalty(_a0 ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*royalty.Info, error) {
	ret := _m.Called(_a0, contract, tokenId)

	var r0 *royalty.Info
	if rf, ok := ret.Get(0).(func(ctx.Ctx, domain.Address, domain.TokenId) *royalty.Info); ok {
		r0 = rf(_a0, contract, tokenId)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*royalty.Info)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, domain.Address, domain.TokenId) error); ok {
		r1 = rf(_a0, contract, tokenId)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
