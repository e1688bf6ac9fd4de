package api

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type feeTotal struct {
	Token     string `json:"token"`
	Symbol    string `json:"symbol,omitempty"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted,omitempty"`
}

type balanceResponse struct {
	Token     string `json:"token"`
	Symbol    string `json:"symbol,omitempty"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted,omitempty"`
}

// userAddress parses the :address route parameter
func userAddress(c *fiber.Ctx) (common.Address, error) {
	address := c.Params("address")
	if !utils.IsValidEthereumAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q is not an address", services.ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

func queryUint(c *fiber.Ctx, key string, fallback uint64) (uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", services.ErrInvalidRequest, key)
	}
	return value, nil
}

func (s *APIServer) handleUserTransactions(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}
	start, err := queryUint(c, "start", 0)
	if err != nil {
		return writeError(c, err)
	}
	count, err := queryUint(c, "count", defaultPageSize)
	if err != nil {
		return writeError(c, err)
	}
	if count > maxPageSize {
		count = maxPageSize
	}

	ctx := c.UserContext()
	records, err := s.svc.Router.GetUserTransactions(ctx, user, start, count)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":         user.Hex(),
		"total":        s.svc.Router.GetUserTransactionCount(ctx, user),
		"start":        start,
		"transactions": records,
	})
}

func (s *APIServer) handleUserTransactionCount(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":  user.Hex(),
		"count": s.svc.Router.GetUserTransactionCount(c.UserContext(), user),
	})
}

func (s *APIServer) handleUserFees(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.UserContext()
	totals, err := s.svc.Router.TotalFeesPaid(ctx, user)
	if err != nil {
		return writeError(c, err)
	}

	fees := make([]feeTotal, 0, len(totals))
	for token, amount := range totals {
		fee := feeTotal{Token: token.Hex(), Amount: amount.String()}
		if info, err := s.svc.Tokens.GetByAddress(ctx, s.chainID(), token); err == nil {
			fee.Symbol = info.Symbol
			fee.Formatted = utils.FormatUnits(amount, info.Decimals)
		}
		fees = append(fees, fee)
	}
	return c.JSON(fiber.Map{"user": user.Hex(), "fees": fees})
}

func (s *APIServer) handleUserBalances(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	balances, err := s.svc.Ledger.Balances(user)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.UserContext()
	response := make([]balanceResponse, 0, len(balances))
	for _, balance := range balances {
		entry := balanceResponse{Token: balance.Token, Amount: balance.Amount.String()}
		if info, err := s.svc.Tokens.GetByAddress(ctx, s.chainID(), common.HexToAddress(balance.Token)); err == nil {
			entry.Symbol = info.Symbol
			entry.Formatted = utils.FormatUnits(balance.Amount.Big(), info.Decimals)
		}
		response = append(response, entry)
	}
	return c.JSON(fiber.Map{"user": user.Hex(), "balances": response})
}

func (s *APIServer) handleGetPreferences(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	prefs, err := s.svc.Preferences.Load(c.UserContext(), user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(prefs)
}

// handleUpdatePreferences applies a partial update; omitted fields keep their saved value
func (s *APIServer) handleUpdatePreferences(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	var update services.PreferencesUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	ctx := c.UserContext()
	current, err := s.svc.Preferences.Load(ctx, user)
	if err != nil {
		return writeError(c, err)
	}
	saved, err := s.svc.Preferences.Save(ctx, update.Apply(current))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(saved)
}

func (s *APIServer) handleListAlerts(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	alerts, err := s.svc.Alerts.ListAlerts(c.UserContext(), user)
	if err != nil {
		return writeError(c, err)
	}
	if alerts == nil {
		alerts = []models.PriceAlert{}
	}
	return c.JSON(fiber.Map{"user": user.Hex(), "alerts": alerts})
}

func (s *APIServer) handleCreateAlert(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	var args services.CreateAlertArgs
	if err := c.BodyParser(&args); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	args.User = user.Hex()

	alert, err := s.svc.Alerts.CreateAlert(c.UserContext(), args)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(alert)
}

func (s *APIServer) handleDeleteAlert(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := s.svc.Alerts.DeleteAlert(c.UserContext(), user, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
