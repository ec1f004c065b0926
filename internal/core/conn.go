package core

import "sync"

// eventBufferSize is the per-connection event channel buffer. A full
// buffer marks the connection as slow; the broadcaster then applies the
// delivery timeout before disconnecting it.
const eventBufferSize = 64

// Conn is a live client connection as seen by the core layer. The hub
// owns its subscription set; the transport drains Events and watches
// Done for forced disconnects.
type Conn struct {
	ID     string
	UserID int64
	Events chan *Event

	done chan struct{}
	once sync.Once
}

// NewConn constructs a connection with an initialized event channel.
func NewConn(id string, userID int64) *Conn {
	return &Conn{
		ID:     id,
		UserID: userID,
		Events: make(chan *Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

// Close marks the connection as terminated. Safe to call repeatedly.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Done is closed when the connection has been terminated, either by the
// transport or by an administrative force-close.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
