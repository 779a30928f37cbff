// README: Delivery journal lookups; per-recipient counts by channel.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridenotify/internal/modules/journal"
)

type DeliveryCounter interface {
	DeliveriesFor(ctx context.Context, recipientID string, ch journal.Channel) (int, error)
}

type DeliveryHandler struct {
	counter DeliveryCounter
}

// NewDeliveryHandler accepts a nil counter when the journal is disabled.
func NewDeliveryHandler(counter DeliveryCounter) *DeliveryHandler {
	return &DeliveryHandler{counter: counter}
}

func (h *DeliveryHandler) Counts(c *gin.Context) {
	if h.counter == nil {
		writeError(c, http.StatusServiceUnavailable, "delivery journal disabled")
		return
	}
	recipient := c.Param("recipientId")
	counts := gin.H{"recipientId": recipient}
	for _, ch := range []journal.Channel{journal.ChannelPush, journal.ChannelRecord} {
		n, err := h.counter.DeliveriesFor(c.Request.Context(), recipient, ch)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "internal error")
			return
		}
		counts[string(ch)] = n
	}
	writeJSON(c, http.StatusOK, counts)
}
