package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"
)

var (
	Big0     = big.NewInt(0)
	Big10000 = big.NewInt(10000)
)

// BasisPointsDenominator is the fee unit where 10000 means 100%
const BasisPointsDenominator = 10000

type Address string

// EmptyAddress doubles as the native coin currency marker
const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

// NativeCurrency is the currency identifier of the chain's native coin
const NativeCurrency = EmptyAddress

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) IsNative() bool {
	return a.IsEmpty()
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

func (a Address) ToCommon() common.Address {
	return common.HexToAddress(string(a))
}

// IsValid reports whether a is a 20 bytes hex address
func (a Address) IsValid() bool {
	return common.IsHexAddress(string(a))
}

func AddressFromCommon(a common.Address) Address {
	return Address(strings.ToLower(a.Hex()))
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) BigInt() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok || id.Sign() < 0 {
		return nil, xerrors.Errorf("invalid token id %s: %w", i, ErrInvalidNumberFormat)
	}
	return id, nil
}

// ParseAmount parses a non-negative base 10 integer amount
func ParseAmount(s string) (*big.Int, error) {
	if len(s) == 0 {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, xerrors.Errorf("invalid amount %q: %w", s, ErrInvalidNumberFormat)
	}
	return n, nil
}

// CopyBig returns a detached copy, nil is treated as zero
func CopyBig(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}

// IsZero treats nil as zero
func IsZero(n *big.Int) bool {
	return n == nil || n.Sign() == 0
}
