package orderControllers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/realtime"
)

// GET /api/admin/orders/feed upgrades to a websocket that receives every
// order event.
func OrderFeed(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The upgrader has already answered the request when this fails.
		if err := hub.Serve(c.Writer, c.Request); err != nil {
			slog.WarnContext(c.Request.Context(), "order feed connection rejected", "error", err)
		}
	}
}
