package api

import (
	"github.com/gofiber/fiber/v2"
)

func (s *APIServer) handleEthUsd(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"eth_usd": s.svc.MarketPrices.EthUsd(c.UserContext())})
}

func (s *APIServer) handleGas(c *fiber.Ctx) error {
	return c.JSON(s.svc.Gas.Current())
}

// handleRate returns the market rate of token_in in token_out, both given as symbol or address
func (s *APIServer) handleRate(c *fiber.Ctx) error {
	tokenIn, tokenOut := c.Query("token_in"), c.Query("token_out")
	if tokenIn == "" || tokenOut == "" {
		return badRequest(c, "token_in and token_out are required")
	}

	ctx := c.UserContext()
	in, err := s.svc.Tokens.Resolve(ctx, s.chainID(), tokenIn)
	if err != nil {
		return writeError(c, err)
	}
	out, err := s.svc.Tokens.Resolve(ctx, s.chainID(), tokenOut)
	if err != nil {
		return writeError(c, err)
	}

	rate, err := s.svc.MarketPrices.FetchRate(ctx, *in, *out)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rate)
}
