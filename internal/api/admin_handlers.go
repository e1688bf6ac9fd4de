package api

import (
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/api/middleware"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

// depositRequest credits amount (human units) of token to holder's custodied balance
type depositRequest struct {
	Holder string `json:"holder" validate:"required,eth_addr"`
	Token  string `json:"token" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// approveRequest sets the router's allowance over owner's token
type approveRequest struct {
	Owner  string `json:"owner" validate:"required,eth_addr"`
	Token  string `json:"token" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

type addLiquidityRequest struct {
	TokenA  string `json:"token_a" validate:"required"`
	TokenB  string `json:"token_b" validate:"required"`
	AmountA string `json:"amount_a" validate:"required"`
	AmountB string `json:"amount_b" validate:"required"`
}

// operator names the caller of an admin route for the audit log
func operator(c *fiber.Ctx) string {
	if user := middleware.GetAuthenticatedUser(c); user != nil {
		return user.Sub
	}
	return "unauthenticated"
}

// tokenAmount resolves a token and converts a human amount into its smallest units
func (s *APIServer) tokenAmount(c *fiber.Ctx, symbolOrAddress, amount string) (*models.Token, *big.Int, error) {
	token, err := s.svc.Tokens.Resolve(c.UserContext(), s.chainID(), symbolOrAddress)
	if err != nil {
		return nil, nil, err
	}
	raw, err := utils.ParseUnits(amount, token.Decimals)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err)
	}
	if raw.Sign() == 0 {
		return nil, nil, services.ErrZeroAmount
	}
	return token, raw, nil
}

func (s *APIServer) handleDeposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := validator.New().Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	token, amount, err := s.tokenAmount(c, req.Token, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	holder := common.HexToAddress(req.Holder)
	address := common.HexToAddress(token.Address)
	if err := s.svc.Ledger.Mint(nil, address, holder, amount); err != nil {
		return writeError(c, err)
	}

	log.Printf("Operator %s deposited %s %s to %s", operator(c), req.Amount, token.Symbol, holder.Hex())

	balance, err := s.svc.Ledger.BalanceOf(nil, holder, address)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(balanceResponse{
		Token:     address.Hex(),
		Symbol:    token.Symbol,
		Amount:    balance.String(),
		Formatted: utils.FormatUnits(balance, token.Decimals),
	})
}

func (s *APIServer) handleApprove(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := validator.New().Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	token, err := s.svc.Tokens.Resolve(c.UserContext(), s.chainID(), req.Token)
	if err != nil {
		return writeError(c, err)
	}
	address := common.HexToAddress(token.Address)
	if constants.IsNative(address) {
		return writeError(c, fmt.Errorf("%w: the native asset needs no approval", services.ErrInvalidRequest))
	}

	// "max" grants an unlimited allowance
	amount := new(big.Int).Set(constants.MaxUint256)
	if req.Amount != "max" {
		if amount, err = utils.ParseUnits(req.Amount, token.Decimals); err != nil {
			return writeError(c, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err))
		}
	}

	owner := common.HexToAddress(req.Owner)
	spender := s.svc.Router.Address()
	if err := s.svc.Ledger.Approve(nil, owner, spender, address, amount); err != nil {
		return writeError(c, err)
	}
	log.Printf("Operator %s set %s allowance of %s to %s", operator(c), token.Symbol, owner.Hex(), amount)
	return c.JSON(fiber.Map{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"token":     address.Hex(),
		"allowance": amount.String(),
	})
}

func (s *APIServer) handleListPools(c *fiber.Ctx) error {
	pools, err := s.svc.AMM.ListPools(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if pools == nil {
		pools = []models.LiquidityPool{}
	}
	return c.JSON(fiber.Map{"amm": s.svc.AMM.Address().Hex(), "pools": pools})
}

// handleAddLiquidity deposits both amounts into the pair, creating the pool when needed. ETH is pooled as WETH.
func (s *APIServer) handleAddLiquidity(c *fiber.Ctx) error {
	var req addLiquidityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := validator.New().Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	tokenA, amountA, err := s.tokenAmount(c, req.TokenA, req.AmountA)
	if err != nil {
		return writeError(c, err)
	}
	tokenB, amountB, err := s.tokenAmount(c, req.TokenB, req.AmountB)
	if err != nil {
		return writeError(c, err)
	}

	a, b := s.svc.PoolToken(common.HexToAddress(tokenA.Address)), s.svc.PoolToken(common.HexToAddress(tokenB.Address))
	pool, err := s.svc.AMM.AddLiquidity(c.UserContext(), a, b, amountA, amountB)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("Operator %s added %s %s / %s %s liquidity", operator(c), req.AmountA, tokenA.Symbol, req.AmountB, tokenB.Symbol)
	return c.Status(fiber.StatusCreated).JSON(pool)
}
