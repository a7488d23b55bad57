package mocks

import (
	big "math/big"

	abi "github.com/ethereum/go-ethereum/accounts/abi"
	common "github.com/ethereum/go-ethereum/common"
	mock "github.com/stretchr/testify/mock"

	ctx "github.com/x-xyz/gomarket/base/ctx"
)

// Client is a mock type for the chain.Client type
type Client struct {
	mock.Mock
}

// Call provides a mock function with given fields: _a0, _a1, _a2, _a3, _a4, _a5, _a6
func (_m *Client) Call(_a0 ctx.Ctx, _a1 int32, _a2 common.Address, _a3 *big.Int, _a4 abi.ABI, _a5 string, _a6 ...interface{}) ([]interface{}, error) {
	var _ca []interface{}
	_ca = append(_ca, _a0, _a1, _a2, _a3, _a4, _a5)
	_ca = append(_ca, _a6...)
	ret := _m.Called(_ca...)

	var r0 []interface{}
	if rf, ok := ret.Get(0).(func(ctx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) []interface{}); ok {
		r0 = rf(_a0, _a1, _a2, _a3, _a4, _a5, _a6...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]interface{})
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) error); ok {
		r1 = rf(_a0, _a1, _a2, _a3, _a4, _a5, _a6...)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// IsContract provides a mock function with given fields: _a0, _a1, _a2
func (_m *Client) IsContract(_a0 ctx.Ctx, _a1 int32, _a2 common.Address) (bool, error) {
	ret := _m.Called(_a0, _a1, _a2)

	var r0 bool
	if rf, ok := ret.Get(0).(func(ctx.Ctx, int32, common.Address) bool); ok {
		r0 = rf(_a0, _a1, _a2)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, int32, common.Address) error); ok {
		r1 = rf(_a0, _a1, _a2)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
