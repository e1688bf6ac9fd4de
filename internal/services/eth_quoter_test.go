package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callArgs struct {
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Input hexutil.Bytes   `json:"input"`
}

// fakeRouterNode answers eth_chainId and eth_call for getAmountsOut, doubling the amount on every hop
type fakeRouterNode struct {
	chainID  uint64
	revert   bool
	lastTo   common.Address
	lastPath []common.Address
}

func (f *fakeRouterNode) ChainId(ctx context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(new(big.Int).SetUint64(f.chainID)), nil
}

func (f *fakeRouterNode) Call(ctx context.Context, args callArgs, _ gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if f.revert {
		return nil, errors.New("execution reverted: UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	}
	data := args.Input
	if len(data) == 0 {
		data = args.Data
	}
	if args.To != nil {
		f.lastTo = *args.To
	}

	parsed, err := contracts.GetRouterABI()
	if err != nil {
		return nil, err
	}
	method := parsed.Methods["getAmountsOut"]
	inputs, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	amountIn := inputs[0].(*big.Int)
	path := inputs[1].([]common.Address)
	f.lastPath = path

	amounts := make([]*big.Int, len(path))
	amounts[0] = amountIn
	for i := 1; i < len(path); i++ {
		amounts[i] = new(big.Int).Mul(amounts[i-1], big.NewInt(2))
	}
	return method.Outputs.Pack(amounts)
}

func newInprocEthClient(t *testing.T, node *fakeRouterNode) *ethclient.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", node))
	t.Cleanup(srv.Stop)
	return ethclient.NewClient(gethrpc.DialInProc(srv))
}

func TestEthQuoterGetAmountsOut(t *testing.T) {
	node := &fakeRouterNode{chainID: constants.ChainIDEthereum}
	quoter, err := NewEthQuoter(context.Background(), newInprocEthClient(t, node))
	require.NoError(t, err)
	assert.Equal(t, constants.ChainIDEthereum, quoter.ChainID())
	assert.Equal(t, constants.UniswapV2Routers[constants.ChainIDEthereum], quoter.Router())

	weth := constants.WrappedNativeTokens[constants.ChainIDEthereum]
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	amounts, err := quoter.GetAmountsOut(context.Background(), big.NewInt(1000), []common.Address{weth, usdc})
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.Equal(t, "2000", amounts[1].String())
	assert.Equal(t, quoter.Router(), node.lastTo)
	assert.Equal(t, []common.Address{weth, usdc}, node.lastPath)
}

func TestEthQuoterRevertMeansNoLiquidity(t *testing.T) {
	node := &fakeRouterNode{chainID: constants.ChainIDSepolia, revert: true}
	quoter, err := NewEthQuoter(context.Background(), newInprocEthClient(t, node))
	require.NoError(t, err)

	_, err = quoter.GetAmountsOut(context.Background(), big.NewInt(1), []common.Address{{1}, {2}})
	assert.ErrorIs(t, err, ErrNoLiquidity)
}

func TestEthQuoterRejectsBadInput(t *testing.T) {
	quoter, err := NewEthQuoter(context.Background(), newInprocEthClient(t, &fakeRouterNode{chainID: constants.ChainIDEthereum}))
	require.NoError(t, err)

	_, err = quoter.GetAmountsOut(context.Background(), big.NewInt(1), []common.Address{{1}})
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = quoter.GetAmountsOut(context.Background(), big.NewInt(0), []common.Address{{1}, {2}})
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestEthQuoterUnsupportedChains(t *testing.T) {
	_, err := NewEthQuoter(context.Background(), newInprocEthClient(t, &fakeRouterNode{chainID: constants.ChainIDRonin}))
	assert.ErrorIs(t, err, ErrUnsupportedChain)
	assert.ErrorContains(t, err, "Ronin")

	_, err = NewEthQuoter(context.Background(), newInprocEthClient(t, &fakeRouterNode{chainID: 424242}))
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}
