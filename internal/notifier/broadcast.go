package notifier

import (
	"log"
	"sync"
)

// EventKind identifies a broadcast signal.
type EventKind string

// DataUpdated tells consumers to re-read the record store.
const DataUpdated EventKind = "DATA_UPDATED"

// Event is a payload-free signal. Consumers re-query the store on receipt.
type Event struct {
	Kind    EventKind
	CycleID string
}

// Broadcaster fans events out to subscribers without blocking the publisher.
// Each subscriber buffers one pending event; further events coalesce into it.
type Broadcaster struct {
	mu        sync.Mutex
	next      int
	subs      map[int]chan Event
	published uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber that has room and drops it for
// those already holding an undelivered event.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published++
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[WARN] subscriber %d has a pending %s, coalescing", id, ev.Kind)
		}
	}
}

// Published returns how many events have been published so far. It is a
// diagnostics counter; the daemon logs it at shutdown.
func (b *Broadcaster) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published
}
