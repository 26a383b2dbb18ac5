package helpers

import (
	"fmt"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/types"
)

// UnitToRaw converts whole LUMA to raw units (multiplies input by 10^3)
func UnitToRaw(units *big.Int) *big.Int {
	p := big.NewInt(10)
	p.Exp(p, big.NewInt(types.TokenDecimals), nil)
	p.Mul(p, units)

	return p
}

// StringToBigInt converts string to BigInt, panics on empty strings and errors
func StringToBigInt(s string) *big.Int {
	if s == "" {
		panic("string is empty")
	}

	b, success := big.NewInt(0).SetString(s, 10)
	if !success {
		panic(fmt.Sprintf("Cannot decode %s into big.Int", s))
	}

	return b
}

// IsValidBigInt verifies that string is a valid non-negative int
func IsValidBigInt(s string) bool {
	if s == "" {
		return false
	}

	b, success := big.NewInt(0).SetString(s, 10)
	if !success {
		return false
	}

	if b.Cmp(big.NewInt(0)) == -1 {
		return false
	}

	return true
}

// Fee computes value * bps / 10000 on the gross value
func Fee(value *big.Int, bps uint32) *big.Int {
	fee := big.NewInt(0).Mul(value, big.NewInt(int64(bps)))
	return fee.Div(fee, big.NewInt(types.FeeDenominator))
}
