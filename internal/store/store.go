package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Conversation is the durable thread between exactly two participants.
// ParticipantLow < ParticipantHigh always holds; the pair is unique.
type Conversation struct {
	ID              int64
	ParticipantLow  int64
	ParticipantHigh int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Message is one unit of conversation history. Seq is a per-conversation
// monotonic order key; CreatedAt is advisory and never used for ordering.
type Message struct {
	ID             int64
	ConversationID int64
	Seq            int64
	SenderID       int64
	ReceiverID     int64
	Text           string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// PushToken is a registered device token for a user.
type PushToken struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// FindOrCreateConversation returns the conversation for the ordered
	// pair (low, high), creating it if needed. Concurrent callers with
	// the same pair all receive the same conversation.
	FindOrCreateConversation(ctx context.Context, low, high int64) (*Conversation, error)

	// GetConversation retrieves a conversation by the ordered pair.
	// Returns ErrNotFound if the pair has never exchanged messages.
	GetConversation(ctx context.Context, low, high int64) (*Conversation, error)

	// ListUserConversations lists conversations the user participates in,
	// most recently updated first.
	ListUserConversations(ctx context.Context, userID int64, limit int) ([]*Conversation, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage assigns the next seq for the conversation, inserts
	// the message and advances the conversation's updated_at in one
	// transaction. A failed append consumes no seq value.
	AppendMessage(ctx context.Context, conversationID, senderID, receiverID int64, text string) (*Message, error)

	// LatestMessage returns the message with the highest seq, or
	// ErrNotFound for an empty conversation.
	LatestMessage(ctx context.Context, conversationID int64) (*Message, error)

	// ListMessages returns up to limit messages ordered by seq ascending.
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]*Message, error)
}

// PushTokenStore handles device token persistence.
type PushTokenStore interface {
	// RegisterPushToken saves a device token for a user. Registering the
	// same (user, token) pair again is a no-op.
	RegisterPushToken(ctx context.Context, userID int64, token string) (*PushToken, error)

	// ListPushTokens returns all tokens registered for a user.
	ListPushTokens(ctx context.Context, userID int64) ([]*PushToken, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ConversationStore
	MessageStore
	PushTokenStore

	// Close closes the underlying database connection.
	Close() error
}
