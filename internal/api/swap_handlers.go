package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

type swapResponse struct {
	Record        models.SwapRecord `json:"record"`
	AmountForSwap string            `json:"amount_for_swap"`
	Path          []string          `json:"path"`
	// Human readable amounts, present when both tokens are registered
	TokenInSymbol  string `json:"token_in_symbol,omitempty"`
	TokenOutSymbol string `json:"token_out_symbol,omitempty"`
	AmountIn       string `json:"amount_in_formatted,omitempty"`
	AmountOut      string `json:"amount_out_formatted,omitempty"`
	FeeAmount      string `json:"fee_amount_formatted,omitempty"`
}

func (s *APIServer) handleListTokens(c *fiber.Ctx) error {
	tokens, err := s.svc.Tokens.ListTokens(c.UserContext(), s.chainID())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"chain_id": s.chainID(), "tokens": tokens})
}

func (s *APIServer) handleQuote(c *fiber.Ctx) error {
	var args services.QuoteArgs
	if err := c.BodyParser(&args); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	result, err := s.svc.Swaps.Quote(c.UserContext(), args)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (s *APIServer) handleSwap(c *fiber.Ctx) error {
	return s.swap(c, "")
}

// handleSwapKind serves the per-kind swap routes, which reject pairs of another kind
func (s *APIServer) handleSwapKind(kind models.SwapKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.swap(c, kind)
	}
}

func (s *APIServer) swap(c *fiber.Ctx, kind models.SwapKind) error {
	var args services.SwapArgs
	if err := c.BodyParser(&args); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if kind != "" {
		args.Kind = kind
	}

	ctx := c.UserContext()
	result, err := s.svc.Swaps.Swap(ctx, args)
	if err != nil {
		return writeError(c, err)
	}

	record := result.Record
	response := swapResponse{
		Record:        record,
		AmountForSwap: result.AmountForSwap.String(),
	}
	for _, hop := range result.Path {
		response.Path = append(response.Path, hop.Hex())
	}
	if tokenIn, err := s.svc.Tokens.Resolve(ctx, s.chainID(), record.TokenIn); err == nil {
		response.TokenInSymbol = tokenIn.Symbol
		response.AmountIn = utils.FormatUnits(record.AmountIn.Big(), tokenIn.Decimals)
		response.FeeAmount = utils.FormatUnits(record.FeeAmount.Big(), tokenIn.Decimals)
	}
	if tokenOut, err := s.svc.Tokens.Resolve(ctx, s.chainID(), record.TokenOut); err == nil {
		response.TokenOutSymbol = tokenOut.Symbol
		response.AmountOut = utils.FormatUnits(record.AmountOut.Big(), tokenOut.Decimals)
	}
	return c.JSON(response)
}

func (s *APIServer) chainID() uint64 {
	return s.svc.Config.Chain.ChainID
}
