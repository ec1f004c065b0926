package core

import "github.com/robertorios/pangeaConversations/internal/store"

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventConversationMessage carries a freshly appended message to all
	// subscribers of the conversation's topic.
	EventConversationMessage EventKind = iota
	// EventSubscribed confirms a subscription to a topic.
	EventSubscribed
	// EventUnsubscribed confirms removal of a subscription.
	EventUnsubscribed
	// EventError notifies the originating connection about a domain error.
	// It is never fanned out to other subscribers.
	EventError
)

// ConversationUpdate is the payload published on a conversation topic
// after a successful append. ActualSenderID preserves who actually sent
// the message since the conversation stores the pair in canonical order.
type ConversationUpdate struct {
	Conversation     *store.Conversation
	LatestMessage    *store.Message
	ActualSenderID   int64
	ActualReceiverID int64
}

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind   EventKind
	Topic  string
	Update *ConversationUpdate
	Error  *CoreError
}
