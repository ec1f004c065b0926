package core

import (
	"testing"
)

func TestHubSubscribeIdempotent(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	conn := NewConn("a", 39)
	hub.Register(conn)

	if !hub.Subscribe(conn.ID, "conv:39-40") {
		t.Fatal("subscribe failed for registered connection")
	}
	if !hub.Subscribe(conn.ID, "conv:39-40") {
		t.Fatal("repeat subscribe should succeed")
	}

	if got := len(hub.ConnectionsOn("conv:39-40")); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	snap := hub.Snapshot()
	if snap.TotalSubscriptions != 1 {
		t.Fatalf("expected 1 subscription after double subscribe, got %d", snap.TotalSubscriptions)
	}
}

func TestHubSubscribeUnknownConnection(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	if hub.Subscribe("ghost", "conv:1-2") {
		t.Fatal("subscribe should fail for unknown connection")
	}
}

func TestHubCloseRemovesSubscriptions(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	conn := NewConn("a", 39)
	hub.Register(conn)
	hub.Subscribe(conn.ID, "conv:39-40")
	hub.Subscribe(conn.ID, "user:39")

	hub.Close(conn.ID)

	select {
	case <-conn.Done():
	default:
		t.Fatal("expected connection to be marked done")
	}

	if got := len(hub.ConnectionsOn("conv:39-40")); got != 0 {
		t.Fatalf("expected no subscribers after close, got %d", got)
	}

	snap := hub.Snapshot()
	if snap.TotalConnections != 0 || snap.TotalSubscriptions != 0 {
		t.Fatalf("expected empty hub, got %+v", snap)
	}
}

func TestHubCloseUser(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	a1 := NewConn("a1", 39)
	a2 := NewConn("a2", 0)
	b := NewConn("b", 40)
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b)

	// a2 connected anonymously and identified later.
	hub.Identify(a2.ID, 39)

	if got := hub.CloseUser(39); got != 2 {
		t.Fatalf("expected to close 2 connections, got %d", got)
	}

	snap := hub.Snapshot()
	if snap.TotalConnections != 1 {
		t.Fatalf("expected 1 connection left, got %d", snap.TotalConnections)
	}
	if snap.Connections[0].ID != "b" {
		t.Fatalf("expected b to survive, got %+v", snap.Connections)
	}
}

func TestHubCloseAll(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	for _, id := range []string{"a", "b", "c"} {
		hub.Register(NewConn(id, 0))
	}

	if got := hub.CloseAll(); got != 3 {
		t.Fatalf("expected to close 3 connections, got %d", got)
	}
	if snap := hub.Snapshot(); snap.TotalConnections != 0 {
		t.Fatalf("expected empty hub, got %d connections", snap.TotalConnections)
	}
}

func TestHubPauseDegradesSnapshotOnly(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	conn := NewConn("a", 39)
	hub.Register(conn)
	hub.Subscribe(conn.ID, "conv:39-40")

	hub.Pause()

	snap := hub.Snapshot()
	if !snap.Paused {
		t.Fatal("expected paused snapshot")
	}
	if snap.TotalConnections != 0 || len(snap.Connections) != 0 {
		t.Fatalf("paused snapshot must be empty, got %+v", snap)
	}

	// Pause is a view concern: routing keeps working.
	if got := len(hub.ConnectionsOn("conv:39-40")); got != 1 {
		t.Fatalf("expected routing unaffected by pause, got %d subscribers", got)
	}
	if !hub.Subscribe(conn.ID, "user:39") {
		t.Fatal("subscribe should work while paused")
	}

	hub.Resume()

	snap = hub.Snapshot()
	if snap.Paused {
		t.Fatal("expected resumed snapshot")
	}
	if snap.TotalConnections != 1 || snap.TotalSubscriptions != 2 {
		t.Fatalf("expected full state back after resume, got %+v", snap)
	}
}

func TestHubSnapshotCounts(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	a := NewConn("a", 39)
	b := NewConn("b", 40)
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a.ID, "conv:39-40")
	hub.Subscribe(b.ID, "conv:39-40")
	hub.Subscribe(b.ID, "user:40")

	snap := hub.Snapshot()
	if snap.TotalConnections != 2 {
		t.Fatalf("expected 2 connections, got %d", snap.TotalConnections)
	}
	if snap.TotalSubscriptions != 3 {
		t.Fatalf("expected 3 subscriptions, got %d", snap.TotalSubscriptions)
	}
	if snap.PerTopicCounts["conv:39-40"] != 2 || snap.PerTopicCounts["user:40"] != 1 {
		t.Fatalf("unexpected per-topic counts: %+v", snap.PerTopicCounts)
	}
	if snap.Connections[0].ID != "a" || snap.Connections[1].ID != "b" {
		t.Fatalf("expected sorted connections, got %+v", snap.Connections)
	}
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	hub := NewConnectionHub(testLogger())

	conn := NewConn("a", 39)
	hub.Register(conn)
	hub.Subscribe(conn.ID, "conv:39-40")

	hub.Unsubscribe(conn.ID, "conv:39-40")
	hub.Unsubscribe(conn.ID, "conv:39-40")
	hub.Unsubscribe(conn.ID, "never-subscribed")

	if got := len(hub.ConnectionsOn("conv:39-40")); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}
}
