package http

import (
	"net/http"

	"github.com/dkeye/peercalls/internal/app"
	"github.com/dkeye/peercalls/internal/app/media"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type StateResponse struct {
	app.StoreSnapshot
	Relays map[domain.ParticipantID][]media.RelayStats `json:"relays,omitempty"`
}

func (a *API) listPeers(c *gin.Context) {
	ids := a.Peers.GetIDs()
	c.JSON(http.StatusOK, gin.H{"peers": ids})
}

func (a *API) broadcast(c *gin.Context) {
	if !a.Limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid message"})
		return
	}
	sent := a.Peers.Message(req.Message)
	log.Info().Str("module", "adapters.http").Int("sent", sent).Msg("broadcast")
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (a *API) destroyPeer(c *gin.Context) {
	id := domain.ParticipantID(c.Param("id"))
	a.Peers.Destroy(id)
	c.Status(http.StatusNoContent)
}

func (a *API) clearPeers(c *gin.Context) {
	a.Peers.Clear()
	c.Status(http.StatusNoContent)
}

func (a *API) state(c *gin.Context) {
	resp := StateResponse{StoreSnapshot: a.State.Snapshot()}
	if a.Stats != nil {
		resp.Relays = a.Stats.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
