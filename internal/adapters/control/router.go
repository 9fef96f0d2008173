// Package control exposes the session over a local HTTP surface so a
// UI process can project state and drive the call.
package control

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/app/session"
)

func SetupRouter(mode string, ctrl *session.Controller) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handlers{Ctrl: ctrl}

	api := r.Group("/api")
	api.GET("/state", h.GetState)
	api.GET("/participants", h.GetParticipants)
	api.GET("/sinks", h.GetSinks)
	api.GET("/chat", h.GetChat)
	api.POST("/chat", h.PostChat)
	api.POST("/media/:source", h.PostMedia)
	api.GET("/devices", h.GetDevices)
	api.POST("/devices/refresh", h.PostDevicesRefresh)
	api.POST("/devices/switch", h.PostDevicesSwitch)
	api.POST("/disconnect", h.PostDisconnect)

	log.Info().Str("module", "control").Str("mode", mode).Msg("router setup")
	return r
}
