package utils

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	ErrInsufficientLiquidity   = errors.New("insufficient liquidity")
	ErrIdenticalAddresses      = errors.New("identical addresses")
)

// SortTokens orders a pair the way Uniswap V2 does (token0 < token1)
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, common.Address{}, ErrIdenticalAddresses
	}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB, nil
	}
	return tokenB, tokenA, nil
}

// PairFor derives the deterministic pair address of the local AMM for two tokens
func PairFor(tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	hash := crypto.Keccak256([]byte("swapit-pair"), token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(hash[12:]), nil
}

// GetAmountOut is the Uniswap V2 constant product output with the 0.3% LP fee:
// out = in*997*reserveOut / (reserveIn*1000 + in*997)
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	withFee := new(big.Int).Mul(amountIn, big.NewInt(constants.UniswapV2FeeNumerator))
	numerator := new(big.Int).Mul(withFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(constants.UniswapV2FeeDenominator))
	denominator.Add(denominator, withFee)

	return numerator.Quo(numerator, denominator), nil
}

// ParseUnits converts a human amount ("1.5") into raw units for the given decimals, truncating extra precision
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", amount)
	}
	return d.Shift(int32(decimals)).Floor().BigInt(), nil
}

// FormatUnits renders raw units as a human amount
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
