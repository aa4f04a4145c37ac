package notifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	a, unsubA := b.Subscribe()
	c, unsubC := b.Subscribe()
	defer unsubA()
	defer unsubC()

	b.Publish(Event{Kind: DataUpdated, CycleID: "1"})

	require.Equal(t, DataUpdated, (<-a).Kind)
	require.Equal(t, "1", (<-c).CycleID)
}

func TestBroadcaster_PublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	// nobody reads; only the first event is buffered
	for i := 0; i < 10; i++ {
		b.Publish(Event{Kind: DataUpdated})
	}
	require.Len(t, ch, 1)
	<-ch
	require.Len(t, ch, 0)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()
	unsub()

	b.Publish(Event{Kind: DataUpdated})
	_, open := <-ch
	require.False(t, open)
}

func TestBroadcaster_PublishedCountsEvents(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Event{Kind: DataUpdated})
	b.Publish(Event{Kind: DataUpdated})
	require.Equal(t, uint64(2), b.Published())
}
