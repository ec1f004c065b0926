package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/core"
)

// ChannelHandlers keeps the legacy topic pre-registration endpoints
// alive. Registration is idempotent and optional: topics are also
// created on demand at subscribe and publish time, so this surface only
// exists for deployments that pre-declare their conversation channels.
type ChannelHandlers struct {
	topics *core.TopicRegistry
	log    *zerolog.Logger
}

// NewChannelHandlers creates the channel registration handlers.
func NewChannelHandlers(topics *core.TopicRegistry, logger *zerolog.Logger) *ChannelHandlers {
	return &ChannelHandlers{topics: topics, log: logger}
}

// RegisterChannelRequest represents the registration body.
type RegisterChannelRequest struct {
	ConversationKey string `json:"conversation_key" binding:"required"`
	UserID          int64  `json:"user_id" binding:"required,gt=0"`
}

// Register resolves a conversation key and ensures its topic exists.
// POST /channels/register
func (h *ChannelHandlers) Register(c *gin.Context) {
	var req RegisterChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "conversation_key and user_id are required"})
		return
	}

	topic, err := core.ResolveSubscribeKey(req.ConversationKey)
	if err != nil {
		ce := core.AsCoreError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ce.Message})
		return
	}

	h.topics.EnsureExists(topic)
	h.log.Info().Str("topic", topic).Int64("user_id", req.UserID).Msg("topic registered")

	c.JSON(http.StatusOK, gin.H{
		"topic":            topic,
		"conversation_key": req.ConversationKey,
		"user_id":          req.UserID,
		"ready":            true,
	})
}

// List returns the registered topic names.
// GET /channels/list
func (h *ChannelHandlers) List(c *gin.Context) {
	names := h.topics.List()
	c.JSON(http.StatusOK, gin.H{
		"channels": names,
		"total":    len(names),
	})
}
