package api

import (
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type setFeeRecipientRequest struct {
	Caller    string `json:"caller" validate:"required,eth_addr"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
}

type transferOwnershipRequest struct {
	Caller   string `json:"caller" validate:"required,eth_addr"`
	NewOwner string `json:"new_owner" validate:"required,eth_addr"`
}

func (s *APIServer) handleGetFeeConfig(c *fiber.Ctx) error {
	cfg, err := s.svc.Router.GetFeeConfig(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"router":           s.svc.Router.Address().Hex(),
		"fee_basis_points": cfg.FeeBasisPoints,
		"fee_recipient":    cfg.FeeRecipient,
		"owner":            cfg.Owner,
		"updated_at":       cfg.UpdatedAt,
	})
}

func (s *APIServer) handleSetFeeRecipient(c *fiber.Ctx) error {
	var req setFeeRecipientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := validator.New().Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	cfg, err := s.svc.Router.SetFeeRecipient(c.UserContext(), common.HexToAddress(req.Caller), common.HexToAddress(req.Recipient))
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("Operator %s changed the fee recipient to %s", operator(c), cfg.FeeRecipient)
	return c.JSON(cfg)
}

func (s *APIServer) handleTransferOwnership(c *fiber.Ctx) error {
	var req transferOwnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := validator.New().Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	cfg, err := s.svc.Router.TransferOwnership(c.UserContext(), common.HexToAddress(req.Caller), common.HexToAddress(req.NewOwner))
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("Operator %s transferred fee ownership to %s", operator(c), cfg.Owner)
	return c.JSON(cfg)
}
