package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/store"
)

// Notifier receives a fire-and-forget signal after every successful
// append. Implementations must not block; their failures never roll back
// or delay the append.
type Notifier interface {
	MessageAppended(conversation *store.Conversation, message *store.Message)
}

// NopNotifier discards append notifications.
type NopNotifier struct{}

func (NopNotifier) MessageAppended(*store.Conversation, *store.Message) {}

// Service runs the end-to-end message pipeline: canonicalize the pair,
// resolve the conversation, append, notify, publish.
type Service struct {
	store       store.Store
	hub         *ConnectionHub
	topics      *TopicRegistry
	broadcaster *Broadcaster
	notifier    Notifier
	log         *zerolog.Logger
}

// NewService wires the conversation core together. A nil notifier is
// replaced with NopNotifier.
func NewService(st store.Store, hub *ConnectionHub, topics *TopicRegistry, broadcaster *Broadcaster, notifier Notifier, logger *zerolog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:       st,
		hub:         hub,
		topics:      topics,
		broadcaster: broadcaster,
		notifier:    notifier,
		log:         logger,
	}
}

// Hub exposes the connection hub for the transport and monitoring layers.
func (s *Service) Hub() *ConnectionHub { return s.hub }

// Topics exposes the topic registry for the administrative surface.
func (s *Service) Topics() *TopicRegistry { return s.topics }

// Subscribe resolves a client-provided conversation key (or legacy user
// id) to a topic, ensures the topic exists and subscribes the connection.
// A positive userID identifies the connection for the monitoring surface.
func (s *Service) Subscribe(conn *Conn, key string, userID int64) (string, error) {
	topic, err := ResolveSubscribeKey(key)
	if err != nil {
		return "", err
	}

	s.hub.Identify(conn.ID, userID)
	s.topics.EnsureExists(topic)
	if !s.hub.Subscribe(conn.ID, topic) {
		return "", coreError(ErrCodeNotFound, "connection is not registered")
	}

	s.log.Info().
		Str("conn_id", conn.ID).
		Int64("user_id", userID).
		Str("topic", topic).
		Msg("subscribed")
	return topic, nil
}

// Unsubscribe removes the connection from a topic. Idempotent.
func (s *Service) Unsubscribe(conn *Conn, topic string) {
	s.hub.Unsubscribe(conn.ID, topic)
	s.log.Info().Str("conn_id", conn.ID).Str("topic", topic).Msg("unsubscribed")
}

// HandleMessage is the full inbound pipeline. The pair is canonicalized
// exactly once and the result used for lookup, append and broadcast. On
// validation failure the message is dropped with a warning; the error is
// returned so the transport can acknowledge the sender, and no other
// subscriber ever observes the attempt.
func (s *Service) HandleMessage(ctx context.Context, senderID, receiverID int64, text string) (*ConversationUpdate, error) {
	pair, err := Canonicalize(senderID, receiverID)
	if err != nil {
		s.log.Warn().
			Int64("sender_id", senderID).
			Int64("receiver_id", receiverID).
			Err(err).
			Msg("dropping message with invalid pair")
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		s.log.Warn().
			Int64("sender_id", senderID).
			Int64("receiver_id", receiverID).
			Msg("dropping message with empty text")
		return nil, coreError(ErrCodeValidation, "message text must not be empty")
	}

	conv, err := s.store.FindOrCreateConversation(ctx, pair.Low, pair.High)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}

	msg, err := s.store.AppendMessage(ctx, conv.ID, senderID, receiverID, text)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	conv.UpdatedAt = msg.CreatedAt

	// Fire-and-forget: notifier failures never affect the append.
	s.notifier.MessageAppended(conv, msg)

	topic := pair.Topic()
	s.topics.EnsureExists(topic)

	update := &ConversationUpdate{
		Conversation:     conv,
		LatestMessage:    msg,
		ActualSenderID:   senderID,
		ActualReceiverID: receiverID,
	}
	s.broadcaster.Publish(topic, &Event{
		Kind:   EventConversationMessage,
		Topic:  topic,
		Update: update,
	})

	s.log.Info().
		Int64("conversation_id", conv.ID).
		Int64("seq", msg.Seq).
		Str("topic", topic).
		Msg("message appended and published")
	return update, nil
}

// History returns up to limit messages between a and b in seq order. A
// pair that never exchanged messages yields an empty slice, not an error.
func (s *Service) History(ctx context.Context, a, b int64, limit int) ([]*store.Message, error) {
	pair, err := Canonicalize(a, b)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, pair.Low, pair.High)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []*store.Message{}, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	msgs, err := s.store.ListMessages(ctx, conv.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// UserConversations lists the conversations a user participates in, most
// recently updated first.
func (s *Service) UserConversations(ctx context.Context, userID int64, limit int) ([]*store.Conversation, error) {
	if userID <= 0 {
		return nil, coreError(ErrCodeValidation, "user id must be positive")
	}
	convs, err := s.store.ListUserConversations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user conversations: %w", err)
	}
	return convs, nil
}
