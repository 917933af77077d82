// Package events carries settlement notifications between components.
//
// Ledgers publish Transfer and Approval events, the exchange publishes
// Swap events. Subscribers receive events on buffered channels; a bounded
// ring buffer keeps the most recent events for RPC queries.
package events

import (
	"sync"
	"time"

	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Event types.
const (
	TypeTransfer = "transfer"
	TypeApproval = "approval"
	TypeSwap     = "swap"
)

// Event is a single settlement notification.
//
// Transfer: Asset, From, To, Amount. Mints carry a zero From, burns a
// zero To.
// Approval: Asset, From (the allowance owner), Spender, Amount.
// Swap: From (the customer), SellAsset, BuyAsset, Amount. The zero asset
// address denotes native currency.
type Event struct {
	Type      string        `json:"type"`
	Asset     types.Address `json:"asset,omitempty"`
	From      types.Address `json:"from,omitempty"`
	To        types.Address `json:"to,omitempty"`
	Spender   types.Address `json:"spender,omitempty"`
	SellAsset types.Address `json:"sell_asset,omitempty"`
	BuyAsset  types.Address `json:"buy_asset,omitempty"`
	Amount    uint64        `json:"amount"`
	TokenID   uint64        `json:"token_id,omitempty"`
	Seq       uint64        `json:"seq"`
	Time      time.Time     `json:"time"`
}

// subscriberBuffer is the channel capacity handed to each subscriber.
// A subscriber that falls this far behind starts losing events.
const subscriberBuffer = 64

// Bus fans events out to subscribers and retains recent history.
type Bus struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[int]chan Event
	nextID int

	ring     []Event
	ringCap  int
	ringNext int
	ringLen  int
}

// NewBus creates a bus retaining up to historySize recent events.
func NewBus(historySize int) *Bus {
	if historySize <= 0 {
		historySize = 256
	}
	return &Bus{
		subs:    make(map[int]chan Event),
		ring:    make([]Event, historySize),
		ringCap: historySize,
	}
}

// Publish assigns the event a sequence number and timestamp, records it
// in the history ring and delivers it to all subscribers. Slow
// subscribers are skipped rather than blocked on.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev.Seq = b.seq
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.ring[b.ringNext] = ev
	b.ringNext = (b.ringNext + 1) % b.ringCap
	if b.ringLen < b.ringCap {
		b.ringLen++
	}

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Recent returns up to limit of the most recent events, oldest first.
func (b *Bus) Recent(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.ringLen
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	start := b.ringNext - n
	if start < 0 {
		start += b.ringCap
	}
	for i := 0; i < n; i++ {
		out = append(out, b.ring[(start+i)%b.ringCap])
	}
	return out
}
