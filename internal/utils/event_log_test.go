package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapExecutedLogRoundTrip(t *testing.T) {
	router := common.HexToAddress("0x00000000000000000000000000000000000fee01")
	ev := SwapExecutedLog{
		User:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenIn:   common.Address{},
		TokenOut:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		AmountIn:  big.NewInt(1_000_000_000_000_000_000),
		AmountOut: big.NewInt(1_994_000),
		FeeAmount: big.NewInt(800_000_000_000_000),
	}

	log, err := EncodeSwapExecutedLog(router, ev)
	require.NoError(t, err)
	assert.Equal(t, router, log.Address)
	require.Len(t, log.Topics, 4)
	assert.Equal(t,
		crypto.Keccak256Hash([]byte("SwapExecuted(address,address,address,uint256,uint256,uint256)")),
		log.Topics[0])
	assert.Len(t, log.Data, 3*32)

	decoded, err := DecodeSwapExecutedLog(log)
	require.NoError(t, err)
	assert.Equal(t, ev.User, decoded.User)
	assert.Equal(t, ev.TokenIn, decoded.TokenIn)
	assert.Equal(t, ev.TokenOut, decoded.TokenOut)
	assert.Equal(t, 0, ev.AmountIn.Cmp(decoded.AmountIn))
	assert.Equal(t, 0, ev.AmountOut.Cmp(decoded.AmountOut))
	assert.Equal(t, 0, ev.FeeAmount.Cmp(decoded.FeeAmount))
}

func TestDecodeSwapExecutedLogRejectsOtherEvents(t *testing.T) {
	_, err := DecodeSwapExecutedLog(&types.Log{Topics: []common.Hash{{0x01}}})
	assert.ErrorContains(t, err, "not a SwapExecuted event")
}

func TestLogHash(t *testing.T) {
	router := common.HexToAddress("0x00000000000000000000000000000000000fee01")
	base := SwapExecutedLog{
		User:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenOut:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		AmountIn:  big.NewInt(10),
		AmountOut: big.NewInt(20),
		FeeAmount: big.NewInt(0),
	}
	first, err := EncodeSwapExecutedLog(router, base)
	require.NoError(t, err)
	same, err := EncodeSwapExecutedLog(router, base)
	require.NoError(t, err)
	assert.Equal(t, LogHash(first), LogHash(same))

	base.AmountOut = big.NewInt(21)
	other, err := EncodeSwapExecutedLog(router, base)
	require.NoError(t, err)
	assert.NotEqual(t, LogHash(first), LogHash(other))
}
