package http

import (
	"time"

	"github.com/robertorios/pangeaConversations/internal/core"
	"github.com/robertorios/pangeaConversations/internal/proto"
	"github.com/robertorios/pangeaConversations/internal/store"
)

func conversationJSON(conv *store.Conversation) proto.ConversationJSON {
	return proto.ConversationJSON{
		ID:              conv.ID,
		ParticipantLow:  conv.ParticipantLow,
		ParticipantHigh: conv.ParticipantHigh,
		CreatedAt:       conv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       conv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func messageJSON(msg *store.Message) proto.MessageJSON {
	out := proto.MessageJSON{
		ID:         msg.ID,
		Seq:        msg.Seq,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if msg.ReadAt != nil {
		readAt := msg.ReadAt.UTC().Format(time.RFC3339)
		out.ReadAt = &readAt
	}
	return out
}

func messagesJSON(msgs []*store.Message) []proto.MessageJSON {
	out := make([]proto.MessageJSON, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageJSON(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventConversationMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data: proto.EventConversationMessage{
				Conversation:     conversationJSON(event.Update.Conversation),
				LatestMessage:    messageJSON(event.Update.LatestMessage),
				ActualSenderID:   event.Update.ActualSenderID,
				ActualReceiverID: event.Update.ActualReceiverID,
			},
		}
	case core.EventSubscribed:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameSubscribed,
			Data:  proto.EventSubscribed{Topic: event.Topic},
		}
	case core.EventUnsubscribed:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUnsubscribed,
			Data:  proto.EventSubscribed{Topic: event.Topic},
		}
	case core.EventError:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: core.ErrCodeValidation, Msg: "unknown event"},
		}
	}
}

func errorOutbound(err error) proto.Outbound {
	ce := core.AsCoreError(err)
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: ce.Code, Msg: ce.Message},
	}
}
