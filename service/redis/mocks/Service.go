package mocks

import (
	time "time"

	mock "github.com/stretchr/testify/mock"

	ctx "github.com/x-xyz/gomarket/base/ctx"
)

// Service is a mock type for the redis.Service type
type Service struct {
	mock.Mock
}

// Get provides a mock function with given fields: _a0, key
func (_m *Service) Get(_a0 ctx.Ctx, key string) ([]byte, error) {
	ret := _m.Called(_a0, key)

	var r0 []byte
	if rf, ok := ret.Get(0).(func(ctx.Ctx, string) []byte); ok {
		r0 = rf(_a0, key)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, string) error); ok {
		r1 = rf(_a0, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Set provides a mock function with given fields: _a0, key, val, expire
func (_m *Service) Set(_a0 ctx.Ctx, key string, val []byte, expire time.Duration) error {
	ret := _m.Called(_a0, key, val, expire)

	var r0 error
	if rf, ok := ret.Get(0).(func(ctx.Ctx, string, []byte, time.Duration) error); ok {
		r0 = rf(_a0, key, val, expire)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// TTL provides a mock function with given fields: _a0, key
func (_m *Service) TTL(_a0 ctx.Ctx, key string) (int, error) {
	ret := _m.Called(_a0, key)

	var r0 int
	if rf, ok := ret.Get(0).(func(ctx.Ctx, string) int); ok {
		r0 = rf(_a0, key)
	} else {
		r0 = ret.Get(0).(int)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, string) error); ok {
		r1 = rf(_a0, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Publish provides a mock function with given fields: _a0, channel, msg
func (_m *Service) Publish(_a0 ctx.Ctx, channel string, msg []byte) (int, error) {
	ret := _m.Called(_a0, channel, msg)

	var r0 int
	if rf, ok := ret.Get(0).(func(ctx.Ctx, string, []byte) int); ok {
		r0 = rf(_a0, channel, msg)
	} else {
		r0 = ret.Get(0).(int)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, string, []byte) error); ok {
		r1 = rf(_a0, channel, msg)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Ping provides a mock function with given fields: _a0
func (_m *Service) Ping(_a0 ctx.Ctx) error {
	ret := _m.Called(_a0)

	var r0 error
	if rf, ok := ret.Get(0).(func(ctx.Ctx) error); ok {
		r0 = rf(_a0)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Del provides a mock function with given fields: _a0, ks
func (_m *Service) Del(_a0 ctx.Ctx, ks ...string) (int, error) {
	_va := make([]interface{}, len(ks))
	for _i := range ks {
		_va[_i] = ks[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, _a0)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 int
	if rf, ok := ret.Get(0).(func(ctx.Ctx, ...string) int); ok {
		r0 = rf(_a0, ks...)
	} else {
		r0 = ret.Get(0).(int)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(ctx.Ctx, ...string) error); ok {
		r1 = rf(_a0, ks...)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Name provides a mock function with given fields:
func (_m *Service) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}
