package services

import "github.com/rxtech-lab/swapit-router/internal/models"

// Hook is used to perform actions after a swap has been committed, based on the swap kind
type Hook interface {
	// CanHandle is used to check if the hook wants swaps of this kind
	CanHandle(kind models.SwapKind) bool
	// OnSwapExecuted is called once the swap and its log entry are committed
	OnSwapExecuted(event models.SwapExecuted) error
}
