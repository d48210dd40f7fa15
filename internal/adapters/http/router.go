package http

import (
	"time"

	"github.com/dkeye/peercalls/internal/app"
	"github.com/dkeye/peercalls/internal/app/media"
	"github.com/dkeye/peercalls/internal/config"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Peers is the part of the registry the control API drives.
type Peers interface {
	GetIDs() []domain.ParticipantID
	Destroy(id domain.ParticipantID)
	Clear()
	Message(text string) int
}

type StateSource interface {
	Snapshot() app.StoreSnapshot
}

type StatsSource interface {
	Stats() map[domain.ParticipantID][]media.RelayStats
}

type API struct {
	Peers   Peers
	State   StateSource
	Stats   StatsSource
	Limiter *RateLimiter
}

func SetupRouter(cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	if api.Limiter == nil {
		api.Limiter = NewRateLimiter(cfg.MessageRate, time.Minute)
	}

	g := r.Group("/api")
	g.GET("/peers", api.listPeers)
	g.POST("/peers/message", api.broadcast)
	g.DELETE("/peers/:id", api.destroyPeer)
	g.DELETE("/peers", api.clearPeers)
	g.GET("/state", api.state)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
