package core

import (
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster fans a published event out to every connection subscribed
// to a topic at the moment of the call. Delivery is best-effort and
// at-most-once; connections that subscribe after Publish returns do not
// receive the event (clients catch up via the history API).
type Broadcaster struct {
	hub     *ConnectionHub
	timeout time.Duration
	log     *zerolog.Logger
}

// NewBroadcaster constructs a broadcaster. timeout bounds how long a slow
// subscriber may stall its own delivery before being disconnected.
func NewBroadcaster(hub *ConnectionHub, timeout time.Duration, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, timeout: timeout, log: logger}
}

// Publish delivers the event to the current subscribers of topic. The
// fast path is a non-blocking channel send; a subscriber whose buffer is
// full gets a grace period of the delivery timeout on a separate
// goroutine and is force-closed if it still cannot accept. Slow
// subscribers never delay delivery to the rest.
func (b *Broadcaster) Publish(topic string, event *Event) {
	for _, conn := range b.hub.ConnectionsOn(topic) {
		select {
		case conn.Events <- event:
		default:
			go b.deliverSlow(topic, conn, event)
		}
	}
}

func (b *Broadcaster) deliverSlow(topic string, conn *Conn, event *Event) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case conn.Events <- event:
	case <-conn.Done():
		// Already gone; in-flight delivery fails silently.
	case <-timer.C:
		b.log.Warn().
			Str("conn_id", conn.ID).
			Str("topic", topic).
			Dur("timeout", b.timeout).
			Msg("slow subscriber, disconnecting")
		b.hub.Close(conn.ID)
	}
}
