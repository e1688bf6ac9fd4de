package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/contracts"
)

// EthQuoter reads getAmountsOut from a deployed Uniswap V2 Router02
type EthQuoter struct {
	client  *ethclient.Client
	router  common.Address
	chainID uint64
}

// DialEthQuoter connects to rpcURL and resolves the router for the node's chain
func DialEthQuoter(ctx context.Context, rpcURL string) (*EthQuoter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	quoter, err := NewEthQuoter(ctx, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return quoter, nil
}

// NewEthQuoter wraps an existing client. Chains without a Uniswap V2 deployment are rejected.
func NewEthQuoter(ctx context.Context, client *ethclient.Client) (*EthQuoter, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	id := chainID.Uint64()
	if name, unsupported := constants.UnsupportedUniswapChains[id]; unsupported {
		return nil, fmt.Errorf("%w: Uniswap is not available on %s", ErrUnsupportedChain, name)
	}
	router, ok := constants.UniswapV2Routers[id]
	if !ok {
		return nil, fmt.Errorf("%w: no Uniswap V2 router known for chain %d", ErrUnsupportedChain, id)
	}
	return &EthQuoter{client: client, router: router, chainID: id}, nil
}

func (q *EthQuoter) ChainID() uint64 { return q.chainID }

func (q *EthQuoter) Router() common.Address { return q.router }

func (q *EthQuoter) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: path needs at least two tokens", ErrInvalidPath)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	parsed, err := contracts.GetRouterABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
	}

	out, err := q.client.CallContract(ctx, ethereum.CallMsg{To: &q.router, Data: data}, nil)
	if err != nil {
		// the router reverts when a pair on the path has no reserves
		return nil, fmt.Errorf("%w: getAmountsOut reverted: %v", ErrNoLiquidity, err)
	}

	values, err := parsed.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected getAmountsOut result length %d", len(values))
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, fmt.Errorf("unexpected getAmountsOut result %v", values[0])
	}
	return amounts, nil
}

func (q *EthQuoter) Close() {
	q.client.Close()
}
