// README: Event ingress; routes a pushed document change through the watchers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridenotify/internal/modules/watcher"
)

type ChangeDispatcher interface {
	Dispatch(ctx context.Context, c watcher.Change) int
}

type EventHandler struct {
	router ChangeDispatcher
}

func NewEventHandler(router ChangeDispatcher) *EventHandler {
	return &EventHandler{router: router}
}

func (h *EventHandler) Ingest(c *gin.Context) {
	var change watcher.Change
	if err := c.ShouldBindJSON(&change); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if err := change.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	// Deliveries run to completion even if the caller hangs up.
	n := h.router.Dispatch(context.WithoutCancel(c.Request.Context()), change)
	writeJSON(c, http.StatusAccepted, gin.H{"matched": n})
}
