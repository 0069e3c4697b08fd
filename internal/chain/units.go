package chain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const nativeDecimals = 18

// sellCap is the amountInMax sent with every token->ETH swap: a sentinel
// standing in for "no real maximum" rather than a computed bound.
var sellCap = func() *big.Int {
	v, ok := new(big.Int).SetString(strings.Repeat("9", 48), 10)
	if !ok {
		panic("chain: bad sell cap literal")
	}
	return v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(nativeDecimals), nil))
}()

// SellCap returns a copy of the unbounded-input sentinel.
func SellCap() *big.Int {
	return new(big.Int).Set(sellCap)
}

// ToWei converts a decimal ETH amount to wei, truncating below 1 wei.
func ToWei(d decimal.Decimal) *big.Int {
	return d.Shift(nativeDecimals).BigInt()
}

// FromWei converts a wei amount to decimal ETH.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -nativeDecimals)
}

// FromUnits converts a raw token amount to a decimal using the token's
// decimal count.
func FromUnits(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}
