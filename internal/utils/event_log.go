package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rxtech-lab/swapit-router/internal/contracts"
)

const swapExecutedEvent = "SwapExecuted"

// SwapExecutedLog is the decoded form of a SwapExecuted log
type SwapExecutedLog struct {
	User      common.Address
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	FeeAmount *big.Int
}

// EncodeSwapExecutedLog builds the EVM log an indexer would see for a swap emitted by router
func EncodeSwapExecutedLog(router common.Address, ev SwapExecutedLog) (*types.Log, error) {
	parsed, err := contracts.GetFeeSwapRouterABI()
	if err != nil {
		return nil, err
	}
	event, ok := parsed.Events[swapExecutedEvent]
	if !ok {
		return nil, fmt.Errorf("event %s not found in ABI", swapExecutedEvent)
	}

	data, err := event.Inputs.NonIndexed().Pack(ev.AmountIn, ev.AmountOut, ev.FeeAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", swapExecutedEvent, err)
	}

	return &types.Log{
		Address: router,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(ev.User.Bytes()),
			common.BytesToHash(ev.TokenIn.Bytes()),
			common.BytesToHash(ev.TokenOut.Bytes()),
		},
		Data: data,
	}, nil
}

// DecodeSwapExecutedLog parses a SwapExecuted log back into its fields
func DecodeSwapExecutedLog(log *types.Log) (*SwapExecutedLog, error) {
	parsed, err := contracts.GetFeeSwapRouterABI()
	if err != nil {
		return nil, err
	}
	event := parsed.Events[swapExecutedEvent]
	if len(log.Topics) != 4 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("log is not a %s event", swapExecutedEvent)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s data: %w", swapExecutedEvent, err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected %s data length %d", swapExecutedEvent, len(values))
	}

	decoded := &SwapExecutedLog{
		User:     common.BytesToAddress(log.Topics[1].Bytes()),
		TokenIn:  common.BytesToAddress(log.Topics[2].Bytes()),
		TokenOut: common.BytesToAddress(log.Topics[3].Bytes()),
	}
	for i, dst := range []**big.Int{&decoded.AmountIn, &decoded.AmountOut, &decoded.FeeAmount} {
		v, ok := values[i].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected type %T in %s data", values[i], swapExecutedEvent)
		}
		*dst = v
	}
	return decoded, nil
}

// LogHash identifies an encoded log by hashing its topics and data
func LogHash(log *types.Log) common.Hash {
	parts := make([][]byte, 0, len(log.Topics)+2)
	parts = append(parts, log.Address.Bytes())
	for _, topic := range log.Topics {
		parts = append(parts, topic.Bytes())
	}
	parts = append(parts, log.Data)
	return crypto.Keccak256Hash(parts...)
}
