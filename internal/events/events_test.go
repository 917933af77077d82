package events

import (
	"testing"

	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(16)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{
		Type:   TypeTransfer,
		Asset:  types.Address{0x01},
		From:   types.Address{0x02},
		To:     types.Address{0x03},
		Amount: 100,
	})

	ev := <-ch
	if ev.Type != TypeTransfer {
		t.Errorf("Type = %q, want %q", ev.Type, TypeTransfer)
	}
	if ev.Amount != 100 {
		t.Errorf("Amount = %d, want 100", ev.Amount)
	}
	if ev.Seq != 1 {
		t.Errorf("Seq = %d, want 1", ev.Seq)
	}
	if ev.Time.IsZero() {
		t.Error("Time should be set on publish")
	}
}

func TestBus_SeqMonotonic(t *testing.T) {
	bus := NewBus(16)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: TypeSwap, Amount: uint64(i)})
	}

	recent := bus.Recent(0)
	if len(recent) != 5 {
		t.Fatalf("Recent() returned %d events, want 5", len(recent))
	}
	for i, ev := range recent {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d Seq = %d, want %d", i, ev.Seq, i+1)
		}
	}
}

func TestBus_RingEviction(t *testing.T) {
	bus := NewBus(4)
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: TypeTransfer, Amount: uint64(i)})
	}

	recent := bus.Recent(0)
	if len(recent) != 4 {
		t.Fatalf("Recent() returned %d events, want 4", len(recent))
	}
	// Oldest retained event is seq 7, newest is seq 10.
	if recent[0].Seq != 7 || recent[3].Seq != 10 {
		t.Errorf("retained seqs = %d..%d, want 7..10", recent[0].Seq, recent[3].Seq)
	}
}

func TestBus_RecentLimit(t *testing.T) {
	bus := NewBus(16)
	for i := 0; i < 8; i++ {
		bus.Publish(Event{Type: TypeApproval})
	}

	recent := bus.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) returned %d events, want 3", len(recent))
	}
	if recent[2].Seq != 8 {
		t.Errorf("last event Seq = %d, want 8", recent[2].Seq)
	}
}

func TestBus_SlowSubscriberSkipped(t *testing.T) {
	bus := NewBus(16)
	ch, cancel := bus.Subscribe()
	defer cancel()

	// Overflow the subscriber channel; Publish must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeTransfer})
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("channel holds %d events, want %d", len(ch), subscriberBuffer)
	}
}

func TestBus_Cancel(t *testing.T) {
	bus := NewBus(16)
	ch, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Event{Type: TypeTransfer})

	// Double cancel is safe.
	cancel()
}
