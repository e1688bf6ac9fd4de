package services

import (
	"errors"

	"github.com/rxtech-lab/swapit-router/internal/quote"
)

// Swap failure reasons. Each aborts the whole swap.
var (
	ErrExpired                = errors.New("Expired")
	ErrZeroAmount             = errors.New("ZeroAmount")
	ErrInsufficientOutput     = errors.New("InsufficientOutput")
	ErrInsufficientAllowance  = errors.New("InsufficientAllowance")
	ErrInsufficientBalance    = errors.New("InsufficientBalance")
	ErrNoLiquidity            = errors.New("NoLiquidity")
	ErrOutOfRange             = errors.New("OutOfRange")
	ErrNotOwner               = errors.New("NotOwner")
	ErrReentrantCall          = errors.New("ReentrantCall")
	ErrInvalidPath            = errors.New("InvalidPath")
	ErrInvalidAddress         = errors.New("InvalidAddress")
	ErrUnsupportedChain       = errors.New("UnsupportedChain")
	ErrTokenNotFound          = errors.New("TokenNotFound")
	ErrAlertNotFound          = errors.New("AlertNotFound")
	ErrInvalidPreferences     = errors.New("InvalidPreferences")
	ErrFeeConfigNotConfigured = errors.New("FeeConfigNotConfigured")
	ErrInvalidRequest         = errors.New("InvalidRequest")
	ErrInvalidSignature       = errors.New("InvalidSignature")
)

// ErrNoQuote is the client-side quote failure; it never reaches the router.
var ErrNoQuote = quote.ErrNoQuoteAvailable

var reasonErrors = []error{
	ErrExpired,
	ErrZeroAmount,
	ErrInsufficientOutput,
	ErrInsufficientAllowance,
	ErrInsufficientBalance,
	ErrNoLiquidity,
	ErrOutOfRange,
	ErrNotOwner,
	ErrReentrantCall,
	ErrInvalidPath,
	ErrInvalidAddress,
	ErrUnsupportedChain,
	ErrTokenNotFound,
	ErrAlertNotFound,
	ErrInvalidPreferences,
	ErrFeeConfigNotConfigured,
	ErrInvalidRequest,
	ErrInvalidSignature,
	quote.ErrNoQuoteAvailable,
	quote.ErrInvalidSlippage,
}

// Reason returns the single failure code surfaced to callers, or "" when err is not a known reason.
func Reason(err error) string {
	for _, candidate := range reasonErrors {
		if errors.Is(err, candidate) {
			switch candidate {
			case quote.ErrNoQuoteAvailable:
				return "NoQuoteAvailable"
			case quote.ErrInvalidSlippage:
				return "InvalidSlippage"
			}
			return candidate.Error()
		}
	}
	return ""
}
