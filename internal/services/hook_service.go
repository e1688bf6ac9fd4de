package services

import (
	"errors"
	"sync"

	"github.com/rxtech-lab/swapit-router/internal/models"
)

type HookService interface {
	AddHook(hook Hook) error
	OnSwapExecuted(event models.SwapExecuted) error
}

type hookService struct {
	mu    sync.RWMutex
	hooks []Hook
}

func NewHookService() HookService {
	return &hookService{
		hooks: []Hook{},
	}
}

func (h *hookService) AddHook(hook Hook) error {
	if hook == nil {
		return errors.New("hook cannot be nil")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
	return nil
}

// OnSwapExecuted delivers the event to every interested hook. A failing hook does not stop the others;
// their errors are joined.
func (h *hookService) OnSwapExecuted(event models.SwapExecuted) error {
	h.mu.RLock()
	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.RUnlock()

	var errs []error
	for _, hook := range hooks {
		if hook.CanHandle(event.Kind) {
			if err := hook.OnSwapExecuted(event); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
