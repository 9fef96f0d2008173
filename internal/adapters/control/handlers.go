package control

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Visage/internal/app/session"
	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
)

type Handlers struct {
	Ctrl *session.Controller
}

type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

type MediaRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type SwitchRequest struct {
	Kind     string `json:"kind" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
}

func (h *Handlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":      h.Ctrl.State(),
		"session_id": h.Ctrl.SessionID(),
	})
}

func (h *Handlers) GetParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"participants": h.Ctrl.Tracker().Snapshot(),
		"publications": h.Ctrl.Tracker().Publications(),
	})
}

func (h *Handlers) GetSinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sinks": h.Ctrl.Presenter().Sinks()})
}

func (h *Handlers) GetChat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.Ctrl.Chat().Messages()})
}

func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid text"})
		return
	}
	if err := h.Ctrl.Chat().Send(c.Request.Context(), req.Text); err != nil {
		writeActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (h *Handlers) PostMedia(c *gin.Context) {
	var req MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid enabled flag"})
		return
	}

	var err error
	switch c.Param("source") {
	case "camera":
		err = h.Ctrl.SetCameraEnabled(c.Request.Context(), *req.Enabled)
	case "microphone":
		err = h.Ctrl.SetMicrophoneEnabled(c.Request.Context(), *req.Enabled)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown source"})
		return
	}
	if err != nil {
		writeActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

func (h *Handlers) GetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.Ctrl.Devices().All()})
}

func (h *Handlers) PostDevicesRefresh(c *gin.Context) {
	if err := h.Ctrl.Devices().Refresh(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": h.Ctrl.Devices().All()})
}

func (h *Handlers) PostDevicesSwitch(c *gin.Context) {
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing kind or device_id"})
		return
	}
	err := h.Ctrl.Devices().Switch(c.Request.Context(), domain.DeviceKind(req.Kind), req.DeviceID)
	if err != nil {
		writeActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": req.DeviceID})
}

func (h *Handlers) PostDisconnect(c *gin.Context) {
	h.Ctrl.Disconnect()
	c.JSON(http.StatusOK, gin.H{"state": h.Ctrl.State()})
}

// writeActionError maps the core error taxonomy onto HTTP codes.
func writeActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "session_not_ready"})
	case errors.Is(err, core.ErrToggleInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "toggle_in_progress"})
	case errors.Is(err, core.ErrAlreadyConnected):
		c.JSON(http.StatusConflict, gin.H{"error": "already_connected"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
