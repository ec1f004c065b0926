package core

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ConnectionHub tracks live connections and their topic subscriptions.
// The pause flag only degrades Snapshot output for the monitoring
// surface; it never disables subscribe or publish.
type ConnectionHub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	users  map[string]int64            // connID -> identified user id (0 = anonymous)
	topics map[string]map[string]*Conn // topic -> connID -> conn
	subs   map[string]map[string]bool  // connID -> topic set

	paused atomic.Bool
	log    *zerolog.Logger
}

// NewConnectionHub constructs an empty hub.
func NewConnectionHub(logger *zerolog.Logger) *ConnectionHub {
	return &ConnectionHub{
		conns:  make(map[string]*Conn),
		users:  make(map[string]int64),
		topics: make(map[string]map[string]*Conn),
		subs:   make(map[string]map[string]bool),
		log:    logger,
	}
}

// Register adds a connection to the hub.
func (h *ConnectionHub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.users[c.ID] = c.UserID
	h.subs[c.ID] = make(map[string]bool)
	h.mu.Unlock()

	h.log.Debug().Str("conn_id", c.ID).Int64("user_id", c.UserID).Msg("connection registered")
}

// Identify records which user a connection belongs to. Clients that
// connect anonymously identify themselves on their first subscribe.
func (h *ConnectionHub) Identify(connID string, userID int64) {
	if userID <= 0 {
		return
	}
	h.mu.Lock()
	if _, ok := h.conns[connID]; ok {
		h.users[connID] = userID
	}
	h.mu.Unlock()
}

// Subscribe adds the connection to a topic. Idempotent; returns false if
// the connection is unknown.
func (h *ConnectionHub) Subscribe(connID, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return false
	}
	if h.subs[connID][topic] {
		return true
	}

	h.subs[connID][topic] = true
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]*Conn)
	}
	h.topics[topic][connID] = conn
	return true
}

// Unsubscribe removes the connection from a topic. Idempotent.
func (h *ConnectionHub) Unsubscribe(connID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSubscription(connID, topic)
}

// removeSubscription must be called with h.mu held.
func (h *ConnectionHub) removeSubscription(connID, topic string) {
	if set, ok := h.subs[connID]; ok {
		delete(set, topic)
	}
	if conns, ok := h.topics[topic]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.topics, topic)
		}
	}
}

// ConnectionsOn returns a point-in-time snapshot of the connections
// subscribed to a topic.
func (h *ConnectionHub) ConnectionsOn(topic string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Conn, 0, len(h.topics[topic]))
	for _, c := range h.topics[topic] {
		conns = append(conns, c)
	}
	return conns
}

// Close terminates a connection and removes all its subscriptions.
func (h *ConnectionHub) Close(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		for topic := range h.subs[connID] {
			h.removeSubscription(connID, topic)
		}
		delete(h.subs, connID)
		delete(h.users, connID)
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.log.Debug().Str("conn_id", connID).Msg("connection closed")
	}
}

// CloseAll terminates every connection and returns how many were closed.
func (h *ConnectionHub) CloseAll() int {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Close(id)
	}
	return len(ids)
}

// CloseUser terminates all of one user's connections and returns how many
// were closed.
func (h *ConnectionHub) CloseUser(userID int64) int {
	h.mu.RLock()
	ids := make([]string, 0)
	for id, uid := range h.users {
		if uid == userID {
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Close(id)
	}
	return len(ids)
}

// ConnInfo describes one connection in a hub snapshot.
type ConnInfo struct {
	ID     string
	UserID int64
	Topics []string
}

// HubSnapshot is a point-in-time view of the hub for monitoring.
type HubSnapshot struct {
	TotalConnections   int
	TotalSubscriptions int
	PerTopicCounts     map[string]int
	Connections        []ConnInfo
	Paused             bool
	Timestamp          time.Time
}

// Snapshot copies the hub state under the read lock and formats outside
// it. While paused it reports a degraded empty view without touching the
// actual subscription state.
func (h *ConnectionHub) Snapshot() HubSnapshot {
	now := time.Now()
	if h.paused.Load() {
		return HubSnapshot{
			PerTopicCounts: map[string]int{},
			Connections:    []ConnInfo{},
			Paused:         true,
			Timestamp:      now,
		}
	}

	h.mu.RLock()
	snap := HubSnapshot{
		TotalConnections: len(h.conns),
		PerTopicCounts:   make(map[string]int, len(h.topics)),
		Connections:      make([]ConnInfo, 0, len(h.conns)),
		Timestamp:        now,
	}
	for topic, conns := range h.topics {
		snap.PerTopicCounts[topic] = len(conns)
	}
	for id := range h.conns {
		topics := make([]string, 0, len(h.subs[id]))
		for topic := range h.subs[id] {
			topics = append(topics, topic)
		}
		snap.TotalSubscriptions += len(topics)
		snap.Connections = append(snap.Connections, ConnInfo{ID: id, UserID: h.users[id], Topics: topics})
	}
	h.mu.RUnlock()

	// Deterministic output for the monitoring endpoints.
	sort.Slice(snap.Connections, func(i, j int) bool { return snap.Connections[i].ID < snap.Connections[j].ID })
	for i := range snap.Connections {
		sort.Strings(snap.Connections[i].Topics)
	}
	return snap
}

// Pause mutes the monitoring view.
func (h *ConnectionHub) Pause() {
	h.paused.Store(true)
	h.log.Info().Msg("monitoring paused")
}

// Resume restores the monitoring view.
func (h *ConnectionHub) Resume() {
	h.paused.Store(false)
	h.log.Info().Msg("monitoring resumed")
}

// Paused reports whether the monitoring view is muted.
func (h *ConnectionHub) Paused() bool {
	return h.paused.Load()
}
