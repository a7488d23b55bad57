package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	// ERC2981ABI is royaltyInfo(tokenId, salePrice) -> (receiver, royaltyAmount)
	ERC2981ABI abi.ABI
	// RoyaltyV2ABI is royaltyInfo(tokenId) -> (receiver, bps)
	RoyaltyV2ABI abi.ABI
	// RoyaltyV1ABI is getRoyalty(tokenId) -> (receiver, bps)
	RoyaltyV1ABI abi.ABI
)

func init() {
	for _, item := range []struct {
		dst  *abi.ABI
		json string
	}{
		{&ERC2981ABI, erc2981ABIJson},
		{&RoyaltyV2ABI, royaltyV2ABIJson},
		{&RoyaltyV1ABI, royaltyV1ABIJson},
	} {
		_abi, err := abi.JSON(strings.NewReader(item.json))
		if err != nil {
			panic("Failed to parse ABI")
		}
		*item.dst = _abi
	}
}

// InterfaceId returns the 4 bytes selector of method, which is also its ERC165 interface id
func InterfaceId(_abi abi.ABI, method string) [4]byte {
	var id [4]byte
	copy(id[:], _abi.Methods[method].ID)
	return id
}

var erc2981ABIJson = `
[
  {
    "inputs": [
      { "internalType": "uint256", "name": "tokenId", "type": "uint256" },
      { "internalType": "uint256", "name": "salePrice", "type": "uint256" }
    ],
    "name": "royaltyInfo",
    "outputs": [
      { "internalType": "address", "name": "receiver", "type": "address" },
      { "internalType": "uint256", "name": "royaltyAmount", "type": "uint256" }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]
`

var royaltyV2ABIJson = `
[
  {
    "inputs": [
      { "internalType": "uint256", "name": "tokenId", "type": "uint256" }
    ],
    "name": "royaltyInfo",
    "outputs": [
      { "internalType": "address", "name": "receiver", "type": "address" },
      { "internalType": "uint256", "name": "bps", "type": "uint256" }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]
`

var royaltyV1ABIJson = `
[
  {
    "inputs": [
      { "internalType": "uint256", "name": "tokenId", "type": "uint256" }
    ],
    "name": "getRoyalty",
    "outputs": [
      { "internalType": "address", "name": "receiver", "type": "address" },
      { "internalType": "uint256", "name": "bps", "type": "uint256" }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]
`
