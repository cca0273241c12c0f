package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// Ensure MemoryBroker implements Broker
var _ Broker = (*MemoryBroker)(nil)

// MemoryBroker delivers events within a single process.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	closed bool
}

// NewMemoryBroker creates an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Publish delivers ev to every current subscriber without blocking.
// A subscriber whose buffer is full misses the event.
func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[ev.MemberID] {
		select {
		case ch <- ev:
		default:
			slog.Warn("Dropping member event for slow subscriber", "member_id", ev.MemberID, "kind", ev.Kind)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done.
func (b *MemoryBroker) Subscribe(ctx context.Context, memberID string) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if b.subs[memberID] == nil {
		b.subs[memberID] = make(map[chan Event]struct{})
	}
	b.subs[memberID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(memberID, ch)
	}()

	return ch, nil
}

func (b *MemoryBroker) remove(memberID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[memberID][ch]; !ok {
		return
	}
	delete(b.subs[memberID], ch)
	if len(b.subs[memberID]) == 0 {
		delete(b.subs, memberID)
	}
	close(ch)
}

// Close closes every subscriber channel.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, id)
	}
	b.closed = true
	return nil
}

// subscriberCount is used by tests.
func (b *MemoryBroker) subscriberCount(memberID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[memberID])
}
