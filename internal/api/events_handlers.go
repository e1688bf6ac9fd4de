package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

const (
	eventStreamPingInterval = 15 * time.Second
	alertBufferSize         = 16
)

// handleEvents streams swap_executed and price_alert events as server-sent events.
// ?user= limits the stream to one user's events.
func (s *APIServer) handleEvents(c *fiber.Ctx) error {
	filter := ""
	if user := c.Query("user"); user != "" {
		if !utils.IsValidEthereumAddress(user) {
			return badRequest(c, fmt.Sprintf("invalid user address %q", user))
		}
		filter = strings.ToLower(user)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// subscribe before the response starts so nothing committed after this request is missed
	swaps, unsubscribeSwaps := s.svc.EventStream.Subscribe()
	alerts := make(chan models.PriceAlert, alertBufferSize)
	unsubscribeAlerts := s.svc.Alerts.Subscribe(func(alert models.PriceAlert) {
		select {
		case alerts <- alert:
		default:
		}
	})
	done := s.done

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribeSwaps()
		defer unsubscribeAlerts()

		ticker := time.NewTicker(eventStreamPingInterval)
		defer ticker.Stop()

		if err := writeComment(w, "connected"); err != nil {
			return
		}
		for {
			var err error
			select {
			case <-done:
				return
			case event, ok := <-swaps:
				if !ok {
					return
				}
				if filter != "" && strings.ToLower(event.User) != filter {
					continue
				}
				err = writeEvent(w, event.EventID, "swap_executed", event)
			case alert := <-alerts:
				if filter != "" && strings.ToLower(alert.User) != filter {
					continue
				}
				err = writeEvent(w, alert.ID, "price_alert", alert)
			case <-ticker.C:
				err = writeComment(w, "ping")
			}
			if err != nil {
				// client went away
				return
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, id, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", id, name, data); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, comment string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", comment); err != nil {
		return err
	}
	return w.Flush()
}
