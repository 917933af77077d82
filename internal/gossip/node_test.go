package gossip

import (
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

func TestNode_New(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0}, events.NewBus(16))
	if n == nil {
		t.Fatal("New returned nil")
	}
	if n.ID() != "" {
		t.Error("ID should be empty before Start")
	}
	if n.Addrs() != nil {
		t.Error("Addrs should be nil before Start")
	}
}

func TestNode_StartStop(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true}, events.NewBus(16))

	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n.ID() == "" {
		t.Error("ID should not be empty after Start")
	}
	if len(n.Addrs()) == 0 {
		t.Error("should have at least one address")
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNode_StopBeforeStart(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0}, events.NewBus(16))
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop before Start should not error: %v", err)
	}
}

func TestNode_PeerTracking(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0}, events.NewBus(16))
	if n.PeerCount() != 0 {
		t.Error("fresh node should have 0 peers")
	}

	fakeID := peer.ID("test-peer-1")
	n.addPeer(fakeID)
	n.addPeer(fakeID) // Idempotent.
	if n.PeerCount() != 1 {
		t.Errorf("PeerCount = %d, want 1", n.PeerCount())
	}
}

func TestNode_IdentityPersists(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)

	n1 := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true, DataDir: dir}, bus)
	if err := n1.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	id1 := n1.ID()
	n1.Stop()

	n2 := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true, DataDir: dir}, bus)
	if err := n2.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer n2.Stop()

	if n2.ID() != id1 {
		t.Errorf("peer ID changed across restarts: %s vs %s", id1, n2.ID())
	}
}

func TestNode_SeedConnection(t *testing.T) {
	busA := events.NewBus(16)
	a := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true}, busA)
	if err := a.Start(); err != nil {
		t.Fatalf("start a: %v", err)
	}
	defer a.Stop()

	busB := events.NewBus(16)
	b := New(Config{
		ListenAddr: "127.0.0.1",
		Port:       0,
		NoDiscover: true,
		Seeds:      a.Addrs(),
	}, busB)
	if err := b.Start(); err != nil {
		t.Fatalf("start b: %v", err)
	}
	defer b.Stop()

	if b.PeerCount() != 1 {
		t.Fatalf("b.PeerCount = %d, want 1", b.PeerCount())
	}

	// GossipSub mesh formation takes a moment; publish after it settles
	// and make sure the publish loop keeps running.
	time.Sleep(200 * time.Millisecond)
	busA.Publish(events.Event{Type: events.TypeSwap, From: types.Address{0x01}, Amount: 42})
	time.Sleep(200 * time.Millisecond)
}
