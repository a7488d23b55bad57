package mocks

import (
	big "math/big"

	mock "github.com/stretchr/testify/mock"

	ctx "github.com/x-xyz/gomarket/base/ctx"
	domain "github.com/x-xyz/gomarket/domain"
)

// Reader is a mock type for the royalty.Reader type
type Reader struct {
	mock.Mock
}

// SupportsInterface provides a mock function with given fields: _a0, contract, interfaceId
func (_m *Reader) SupportsInterface(_a0 ctx.Ctx, contract domain.Address, interfaceId string) (bool, error) {
	ret := _m.Called(_a0, contract, interfaceId)

	var r0 bool
	if rf, ok := ret.Get(0).(func(ctx.Ctx, domain.Address, string) bool); ok {
		r0 = rf(_a0, contract, interfaceId)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, domain.Address, string) error); ok {
		r1 = rf(_a0, contract, interfaceId)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// RoyaltyInfo provides a mock function with given fields: _a0, contract, tokenId, salePrice
func (_m *Reader) RoyaltyInfo(_a0 ctx.Ctx, contract domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error) {
	ret := _m.Called(_a0, contract, tokenId, salePrice)
	return addressBigErr(ret)
}

// RoyaltyInfoBps provides a mock function with given fields: _a0, contract, tokenId
func (_m *Reader) RoyaltyInfoBps(_a0 ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	ret := _m.Called(_a0, contract, tokenId)
	return addressBigErr(ret)
}

// GetRoyalty provides a mock function with given fields: _a0, contract, tokenId
func (_m *Reader) GetRoyalty(_a0 ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	ret := _m.Called(_a0, contract, tokenId)
	return addressBigErr(ret)
}

func addressBigErr(ret mock.Arguments) (domain.Address, *big.Int, error) {
	var r0 domain.Address
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(domain.Address)
	}

	var r1 *big.Int
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(*big.Int)
	}

	return r0, r1, ret.Error(2)
}
