package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeSubscribe   = "subscribe"
	InboundTypeUnsubscribe = "unsubscribe"
	InboundTypeMessage     = "message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage      = "message"
	EventNameSubscribed   = "subscribed"
	EventNameUnsubscribed = "unsubscribed"
)

// SubscribeData requests a subscription. ConversationKey is the pair form
// ("39-40"); a bare user id is accepted as the legacy per-user form.
// Protocol is optional; legacy clients omit it, versioned clients must
// match ProtocolVersion.
type SubscribeData struct {
	ConversationKey string `json:"conversation_key"`
	UserID          int64  `json:"user_id,omitempty"`
	Protocol        int    `json:"protocol,omitempty"`
}

// UnsubscribeData requests removal of a subscription by topic name.
type UnsubscribeData struct {
	Topic string `json:"topic"`
}

// MessageData is a chat message from the client. Field names match the
// historical wire format.
type MessageData struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Text       string `json:"message_text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ConversationJSON is the wire form of a conversation.
type ConversationJSON struct {
	ID              int64  `json:"id"`
	ParticipantLow  int64  `json:"participant_low"`
	ParticipantHigh int64  `json:"participant_high"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// MessageJSON is the wire form of a message.
type MessageJSON struct {
	ID         int64   `json:"id"`
	Seq        int64   `json:"seq"`
	SenderID   int64   `json:"sender_id"`
	ReceiverID int64   `json:"receiver_id"`
	Text       string  `json:"message_text"`
	ReadAt     *string `json:"read_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// EventConversationMessage is the fan-out payload for a new message.
type EventConversationMessage struct {
	Conversation     ConversationJSON `json:"conversation"`
	LatestMessage    MessageJSON      `json:"latest_message"`
	ActualSenderID   int64            `json:"actual_sender_id"`
	ActualReceiverID int64            `json:"actual_receiver_id"`
}

// EventSubscribed confirms a subscription.
type EventSubscribed struct {
	Topic string `json:"topic"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
