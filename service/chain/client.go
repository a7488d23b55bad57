package chain

import (
	"errors"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/ethereum"
	"github.com/x-xyz/gomarket/base/log"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrNotContract      = errors.New("no contract code at address")
)

type ClientCfg struct {
	RpcUrls map[int32]string
	// MaxInflight bounds concurrent calls per chain
	MaxInflight int
}

type Client interface {
	Call(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
	IsContract(bCtx.Ctx, int32, common.Address) (bool, error)
}

type clientImpl struct {
	callers map[int32]ethereum.ContractCaller
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	var anyerr error
	callers := make(map[int32]ethereum.ContractCaller)
	for chainId, url := range cfg.RpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
				"url":     url,
			}).Warn("failed to dial rpc")
			// soft warning, still let the server start
			continue
		}
		callers[chainId] = ethereum.NewThrottledCaller(client, cfg.MaxInflight)
	}
	return NewClientWithCallers(callers), anyerr
}

// NewClientWithCallers builds a client over existing callers, e.g. a simulated backend
func NewClientWithCallers(callers map[int32]ethereum.ContractCaller) Client {
	return &clientImpl{callers: callers}
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	caller, ok := c.callers[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := goethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := caller.CallContract(ctx, msg, blk)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method, "addr": addr.Hex()}).Warn("caller.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method, "addr": addr.Hex()}).Warn("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (c *clientImpl) IsContract(ctx bCtx.Ctx, chainId int32, addr common.Address) (bool, error) {
	caller, ok := c.callers[chainId]
	if !ok {
		return false, ErrUnsupportedChain
	}
	code, err := caller.CodeAt(ctx, addr, nil)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "addr": addr.Hex()}).Error("caller.CodeAt failed")
		return false, err
	}
	return len(code) > 0, nil
}
