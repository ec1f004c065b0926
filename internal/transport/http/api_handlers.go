package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/core"
	"github.com/robertorios/pangeaConversations/internal/proto"
	"github.com/robertorios/pangeaConversations/internal/store"
)

// userConversationsLimit caps the per-user conversation listing.
const userConversationsLimit = 20

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	service      *core.Service
	tokens       store.PushTokenStore
	historyLimit int
	log          *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(service *core.Service, tokens store.PushTokenStore, historyLimit int, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		service:      service,
		tokens:       tokens,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryResponse represents the conversation history response body.
type HistoryResponse struct {
	Messages []proto.MessageJSON `json:"messages"`
}

// History returns the message history between two users, oldest first.
// A pair with no prior messages yields an empty list, not an error.
// GET /api/v1/conversations/history?user_id_a=39&user_id_b=40
func (h *APIHandlers) History(c *gin.Context) {
	userA, errA := strconv.ParseInt(c.Query("user_id_a"), 10, 64)
	userB, errB := strconv.ParseInt(c.Query("user_id_b"), 10, 64)
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id_a and user_id_b are required"})
		return
	}

	msgs, err := h.service.History(c.Request.Context(), userA, userB, h.historyLimit)
	if err != nil {
		ce := core.AsCoreError(err)
		if ce.Code == core.ErrCodeInvalidPair || ce.Code == core.ErrCodeValidation {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: ce.Message})
			return
		}
		h.log.Error().Err(err).Int64("user_id_a", userA).Int64("user_id_b", userB).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Messages: messagesJSON(msgs)})
}

// UserConversationsResponse lists a user's conversations.
type UserConversationsResponse struct {
	Conversations []proto.ConversationJSON `json:"conversations"`
}

// UserConversations returns the conversations a user participates in,
// most recently updated first.
// GET /api/v1/conversations/user/:user_id
func (h *APIHandlers) UserConversations(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	convs, err := h.service.UserConversations(c.Request.Context(), userID, userConversationsLimit)
	if err != nil {
		ce := core.AsCoreError(err)
		if ce.Code == core.ErrCodeValidation {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: ce.Message})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]proto.ConversationJSON, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conversationJSON(conv))
	}
	c.JSON(http.StatusOK, UserConversationsResponse{Conversations: out})
}

// RegisterPushTokenRequest represents the push token registration body.
type RegisterPushTokenRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Token  string `json:"token" binding:"required"`
}

// RegisterPushToken stores a device token for a user. Idempotent per
// (user, token) pair.
// POST /api/v1/push_tokens
func (h *APIHandlers) RegisterPushToken(c *gin.Context) {
	var req RegisterPushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid push token request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id and token are required"})
		return
	}

	pt, err := h.tokens.RegisterPushToken(c.Request.Context(), req.UserID, req.Token)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", req.UserID).Msg("failed to register push token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": pt.ID, "user_id": pt.UserID})
}
