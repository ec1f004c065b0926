package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/core"
	"github.com/robertorios/pangeaConversations/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Conn.
type WSHandler struct {
	service *core.Service
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(service *core.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{service: service, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := core.NewConn(uuid.New().String(), 0)
	hub := h.service.Hub()
	hub.Register(conn)
	defer hub.Close(conn.ID)

	h.log.Info().Str("conn_id", conn.ID).Msg("websocket connected")
	defer h.log.Info().Str("conn_id", conn.ID).Msg("websocket disconnected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			return err
		}

		if outbound := h.handleInbound(ctx, conn, inbound); outbound != nil {
			if err := wsjson.Write(ctx, wsConn, outbound); err != nil {
				return err
			}
		}
	}
}

// handleInbound runs one client frame through the core. The returned
// outbound, if any, goes only to this connection; fan-out to other
// subscribers happens through the broadcaster.
func (h *WSHandler) handleInbound(ctx context.Context, conn *core.Conn, inbound proto.Inbound) *proto.Outbound {
	switch inbound.Type {
	case proto.InboundTypeSubscribe:
		var sub proto.SubscribeData
		if err := json.Unmarshal(inbound.Data, &sub); err != nil {
			out := errorOutbound(core.ErrInvalidPair)
			return &out
		}
		if sub.Protocol != 0 && sub.Protocol != proto.ProtocolVersion {
			out := proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "unsupported_version", Msg: fmt.Sprintf("protocol %d is not supported", sub.Protocol)},
			}
			return &out
		}
		key := sub.ConversationKey
		if key == "" && sub.UserID > 0 {
			// Legacy clients subscribe with only their own user id.
			key = strconv.FormatInt(sub.UserID, 10)
		}
		topic, err := h.service.Subscribe(conn, key, sub.UserID)
		if err != nil {
			out := errorOutbound(err)
			return &out
		}
		out := outboundFromEvent(&core.Event{Kind: core.EventSubscribed, Topic: topic})
		return &out

	case proto.InboundTypeUnsubscribe:
		var unsub proto.UnsubscribeData
		if err := json.Unmarshal(inbound.Data, &unsub); err != nil || unsub.Topic == "" {
			out := errorOutbound(core.ErrValidation)
			return &out
		}
		h.service.Unsubscribe(conn, unsub.Topic)
		out := outboundFromEvent(&core.Event{Kind: core.EventUnsubscribed, Topic: unsub.Topic})
		return &out

	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			out := errorOutbound(core.ErrValidation)
			return &out
		}
		if _, err := h.service.HandleMessage(ctx, msg.SenderID, msg.ReceiverID, msg.Text); err != nil {
			// Rejections are acknowledged to the sender only; nothing is
			// broadcast and other subscribers never see the attempt.
			out := errorOutbound(err)
			return &out
		}
		return nil

	default:
		out := proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "invalid_message", Msg: "unknown message type"},
		}
		return &out
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn) error {
	for {
		select {
		case event, ok := <-conn.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, wsConn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
				return err
			}
		case <-conn.Done():
			// Force-closed by the hub (slow subscriber or admin stop).
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
