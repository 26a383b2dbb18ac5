package types

import "math/big"

// ChainID is ID of the network (1 - mainnet, 2 - testnet)
type ChainID byte

const (
	// ChainMainnet is mainnet chain ID of the network
	ChainMainnet ChainID = 0x01
	// ChainTestnet is testnet chain ID of the network
	ChainTestnet ChainID = 0x02
)

// CurrentChainID is current ChainID of the network
var CurrentChainID = ChainMainnet

// TokenSymbol is the ticker of the native token
const TokenSymbol = "LUMA"

// TokenDecimals is the number of decimal places of the native token
const TokenDecimals = 3

// FeeDenominator is the divisor applied to fees expressed in basis points
const FeeDenominator = 10000

// MaxTransferFeeBps is the hard ceiling for the transfer fee (10%)
const MaxTransferFeeBps = 1000

var (
	// MaxSupply is the cap on the total raw-unit supply of the native token
	// (100,000,000 LUMA at 3 decimals)
	maxSupply, _ = big.NewInt(0).SetString("100000000000", 10)

	// maxBalance bounds a single balance to the range the wire format can
	// carry (2^128 - 1 raw units)
	maxBalance = big.NewInt(0).Sub(big.NewInt(0).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// MaxSupply returns the supply cap of the native token in raw units
func MaxSupply() *big.Int {
	return big.NewInt(0).Set(maxSupply)
}

// MaxBalance returns the largest representable single balance in raw units
func MaxBalance() *big.Int {
	return big.NewInt(0).Set(maxBalance)
}

// FeeAddress is the protocol-owned account transfer fees are routed to
var FeeAddress = HexToAddress("Lx0000000000000000000000000000000000000fee")
