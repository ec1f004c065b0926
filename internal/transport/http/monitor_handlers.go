package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/core"
)

// MonitorHandlers exposes the administrative surface over the connection
// hub: introspection, forced disconnects and the pause flag. These
// handlers never touch conversation or message state.
type MonitorHandlers struct {
	hub *core.ConnectionHub
	log *zerolog.Logger
}

// NewMonitorHandlers creates the monitoring handlers.
func NewMonitorHandlers(hub *core.ConnectionHub, logger *zerolog.Logger) *MonitorHandlers {
	return &MonitorHandlers{hub: hub, log: logger}
}

type connectionStatus struct {
	ID            string   `json:"id"`
	UserID        int64    `json:"user_id,omitempty"`
	Subscriptions int      `json:"subscriptions"`
	Topics        []string `json:"topics"`
}

// Status reports active connections and their subscriptions.
// GET /websocket/status
func (h *MonitorHandlers) Status(c *gin.Context) {
	snap := h.hub.Snapshot()
	if snap.Paused {
		c.JSON(http.StatusOK, gin.H{
			"total_connections": 0,
			"connections":       []connectionStatus{},
			"paused":            true,
			"message":           "websocket monitoring is paused",
			"timestamp":         snap.Timestamp.Format(time.RFC3339),
		})
		return
	}

	conns := make([]connectionStatus, 0, len(snap.Connections))
	for _, info := range snap.Connections {
		conns = append(conns, connectionStatus{
			ID:            info.ID,
			UserID:        info.UserID,
			Subscriptions: len(info.Topics),
			Topics:        info.Topics,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"total_connections": snap.TotalConnections,
		"connections":       conns,
		"paused":            false,
		"timestamp":         snap.Timestamp.Format(time.RFC3339),
	})
}

// Stats reports aggregate counts and per-topic subscription totals.
// GET /websocket/stats
func (h *MonitorHandlers) Stats(c *gin.Context) {
	snap := h.hub.Snapshot()
	if snap.Paused {
		c.JSON(http.StatusOK, gin.H{
			"total_connections":   0,
			"total_subscriptions": 0,
			"topics":              map[string]int{},
			"paused":              true,
			"message":             "websocket monitoring is paused",
			"timestamp":           snap.Timestamp.Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_connections":   snap.TotalConnections,
		"total_subscriptions": snap.TotalSubscriptions,
		"topics":              snap.PerTopicCounts,
		"paused":              false,
		"timestamp":           snap.Timestamp.Format(time.RFC3339),
	})
}

// StopAll force-closes every connection.
// POST /websocket/stop_all
func (h *MonitorHandlers) StopAll(c *gin.Context) {
	count := h.hub.CloseAll()
	h.log.Info().Int("count", count).Msg("stopped all websocket connections")
	c.JSON(http.StatusOK, gin.H{
		"stopped":   count,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// StopUser force-closes all connections identified as one user's.
// POST /websocket/stop_user/:user_id
func (h *MonitorHandlers) StopUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	count := h.hub.CloseUser(userID)
	h.log.Info().Int64("user_id", userID).Int("count", count).Msg("stopped user websocket connections")
	c.JSON(http.StatusOK, gin.H{
		"stopped":   count,
		"user_id":   userID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Pause mutes the monitoring view without touching subscriptions.
// POST /websocket/pause
func (h *MonitorHandlers) Pause(c *gin.Context) {
	h.hub.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true, "timestamp": time.Now().Format(time.RFC3339)})
}

// Resume restores the monitoring view.
// POST /websocket/resume
func (h *MonitorHandlers) Resume(c *gin.Context) {
	h.hub.Resume()
	c.JSON(http.StatusOK, gin.H{"paused": false, "timestamp": time.Now().Format(time.RFC3339)})
}
