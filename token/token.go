package token

import (
	"math/big"
	"strings"

	"github.com/mayanlabs/swap-watcher/chain"
)

// Decimal widths of the two settlement rails.
const (
	CircleDecimals   = 6
	WormholeDecimals = 8
)

// maxDisplayDecimals caps the fractional digits rendered for a token.
const maxDisplayDecimals = 8

// Token describes a token contract on one chain.
type Token struct {
	Chain    chain.ID `json:"chainId"`
	Contract string   `json:"contract"`
	Symbol   string   `json:"symbol"`
	Decimals uint8    `json:"decimals"`
}

// Key returns the lookup key of the token, lowercase contract scoped by chain.
func Key(c chain.ID, contract string) string {
	return c.Name() + ":" + strings.ToLower(contract)
}

var nativeUSDC = map[chain.ID]string{
	chain.Ethereum:  "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
	chain.Polygon:   "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359",
	chain.Avalanche: "0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e",
	chain.Arbitrum:  "0xaf88d065e77c8cc2239327c5edb3a432268e5831",
	chain.Optimism:  "0x0b2c639c533813f4aa9d7837caf62653d097ff85",
	chain.Base:      "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
	chain.Sui:       "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC",
	chain.Solana:    "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
}

// NativeUSDC returns the native usdc token of the chain, or nil when the
// chain has none.
func NativeUSDC(c chain.ID) *Token {
	contract, ok := nativeUSDC[c]
	if !ok {
		return nil
	}
	return &Token{
		Chain:    c,
		Contract: contract,
		Symbol:   "USDC",
		Decimals: CircleDecimals,
	}
}

// FormatUnits renders a raw integer amount as a decimal string, trimming
// trailing zeros. Display precision is capped at 8 digits regardless of the
// token decimals.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if decimals > maxDisplayDecimals {
		decimals = maxDisplayDecimals
	}
	if decimals == 0 {
		return amount.String()
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(amount, scale, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(
		strings.Repeat("0", int(decimals)-len(rem.String()))+rem.String(), "0")
	return quo.String() + "." + frac
}

// FormatUnits64 is FormatUnits for uint64 amounts.
func FormatUnits64(amount uint64, decimals uint8) string {
	return FormatUnits(new(big.Int).SetUint64(amount), decimals)
}

// TruncateDecimals clamps the display precision of a token.
func TruncateDecimals(decimals uint8) uint8 {
	if decimals > maxDisplayDecimals {
		return maxDisplayDecimals
	}
	return decimals
}
