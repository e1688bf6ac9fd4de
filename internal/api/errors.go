package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

// reasonStatus maps failure reasons to HTTP statuses. Unknown errors are 500.
var reasonStatus = map[string]int{
	"InvalidRequest":         fiber.StatusBadRequest,
	"InvalidAddress":         fiber.StatusBadRequest,
	"InvalidPath":            fiber.StatusBadRequest,
	"ZeroAmount":             fiber.StatusBadRequest,
	"OutOfRange":             fiber.StatusBadRequest,
	"InvalidSlippage":        fiber.StatusBadRequest,
	"InvalidPreferences":     fiber.StatusBadRequest,
	"UnsupportedChain":       fiber.StatusBadRequest,
	"NotOwner":               fiber.StatusForbidden,
	"InvalidSignature":       fiber.StatusForbidden,
	"TokenNotFound":          fiber.StatusNotFound,
	"AlertNotFound":          fiber.StatusNotFound,
	"ReentrantCall":          fiber.StatusConflict,
	"Expired":                fiber.StatusUnprocessableEntity,
	"InsufficientOutput":     fiber.StatusUnprocessableEntity,
	"InsufficientAllowance":  fiber.StatusUnprocessableEntity,
	"InsufficientBalance":    fiber.StatusUnprocessableEntity,
	"NoLiquidity":            fiber.StatusUnprocessableEntity,
	"NoQuoteAvailable":       fiber.StatusUnprocessableEntity,
	"FeeConfigNotConfigured": fiber.StatusServiceUnavailable,
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError responds with the failure reason of err and its status
func writeError(c *fiber.Ctx, err error) error {
	reason := services.Reason(err)
	status, ok := reasonStatus[reason]
	if !ok {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error:   "InternalError",
			Message: "internal server error",
		})
	}
	return c.Status(status).JSON(errorResponse{Error: reason, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "InvalidRequest", Message: message})
}

// handleFiberError renders routing and body errors raised by fiber itself
func handleFiberError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		reason := "InvalidRequest"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			reason = "NotFound"
		case fiber.StatusMethodNotAllowed:
			reason = "MethodNotAllowed"
		case fiber.StatusInternalServerError:
			reason = "InternalError"
		}
		return c.Status(fiberErr.Code).JSON(errorResponse{Error: reason, Message: fiberErr.Message})
	}
	return writeError(c, err)
}
