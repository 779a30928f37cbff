// README: Sweep handlers; on-demand run and recent run history.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridenotify/internal/modules/completion"
	"ridenotify/internal/modules/journal"
)

const (
	defaultSweepLimit = 20
	maxSweepLimit     = 200
)

type SweepRunner interface {
	Sweep(ctx context.Context) (completion.Result, error)
}

type SweepHistory interface {
	RecentSweeps(ctx context.Context, limit int) ([]journal.SweepRun, error)
}

type SweepHandler struct {
	sweeper SweepRunner
	history SweepHistory
}

// NewSweepHandler accepts a nil history when the journal is disabled.
func NewSweepHandler(sweeper SweepRunner, history SweepHistory) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, history: history}
}

type sweepResponse struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Scanned    int       `json:"scanned"`
	Completed  int       `json:"completed"`
	Skipped    int       `json:"skipped"`
	Malformed  int       `json:"malformed"`
	Stale      int       `json:"stale"`
	Failed     int       `json:"failed"`
}

func (h *SweepHandler) Run(c *gin.Context) {
	res, err := h.sweeper.Sweep(c.Request.Context())
	if errors.Is(err, completion.ErrLeaseHeld) {
		writeError(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(c, http.StatusOK, sweepResponse{
		ID:         res.RunID.String(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Scanned:    res.Scanned,
		Completed:  res.Completed,
		Skipped:    res.Skipped,
		Malformed:  res.Malformed,
		Stale:      res.Stale,
		Failed:     res.Failed,
	})
}

func (h *SweepHandler) Recent(c *gin.Context) {
	if h.history == nil {
		writeError(c, http.StatusServiceUnavailable, "sweep journal disabled")
		return
	}
	limit := defaultSweepLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxSweepLimit)
	}
	runs, err := h.history.RecentSweeps(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]sweepResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, sweepResponse{
			ID:         r.ID.String(),
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Scanned:    r.Scanned,
			Completed:  r.Completed,
			Skipped:    r.Skipped,
			Malformed:  r.Malformed,
			Stale:      r.Stale,
			Failed:     r.Failed,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"runs": out})
}
