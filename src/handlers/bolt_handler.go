// backend/src/handlers/bolt_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/services"
)

// BoltHandler exposes the live Bolt fleet API to the admin panel, used to
// cross-check imported earnings against the day's actual rides.
type BoltHandler struct {
	client *services.BoltAPIClient
}

func NewBoltHandler(client *services.BoltAPIClient) *BoltHandler {
	return &BoltHandler{client: client}
}

// HandleGetFleetOrders returns the fleet's rides for ?date=YYYY-MM-DD
// (default: today).
func (h *BoltHandler) HandleGetFleetOrders(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		sendJSONError(w, "Bolt API integration is not configured", http.StatusServiceUnavailable)
		return
	}

	day := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			sendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	orders, err := h.client.GetFleetOrdersForDay(r.Context(), day)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Bolt fleet orders fetch failed", "error", err)
		sendJSONError(w, "Failed to fetch fleet orders from Bolt", http.StatusBadGateway)
		return
	}
	if orders == nil {
		orders = []services.FleetOrder{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"date":   day.Format("2006-01-02"),
		"orders": orders,
	})
}
