package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats godoc
// @Summary      Get statistics
// @Description  Aggregates over the caller's games and moves. Guests get zeros.
// @Tags         stats
// @Produce      json
// @Success      200  {object}  models.Stats
// @Failure      401  {object}  ErrorResponse
// @Router       /stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
