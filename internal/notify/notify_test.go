package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/notify"
)

func TestBroadcaster_SubscribeReturnsCurrent(t *testing.T) {
	b := notify.New(7)

	cur, _, cancel := b.Subscribe()
	defer cancel()

	assert.Equal(t, 7, cur)
}

func TestBroadcaster_LastWriteWins(t *testing.T) {
	b := notify.New(0)
	_, ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	require.Len(t, ch, 1, "only the most recent value is buffered")
	assert.Equal(t, 3, <-ch)
	assert.Equal(t, 3, b.Current())
}

func TestBroadcaster_Update(t *testing.T) {
	b := notify.New(uint64(1))
	_, ch, cancel := b.Subscribe()
	defer cancel()

	got := b.Update(func(v uint64) uint64 { return v + 1 })

	assert.Equal(t, uint64(2), got)
	assert.Equal(t, uint64(2), <-ch)
}

func TestBroadcaster_CancelUnregisters(t *testing.T) {
	b := notify.New("a")
	_, ch, cancel := b.Subscribe()

	cancel()
	cancel() // idempotent
	b.Publish("b")

	_, open := <-ch
	assert.False(t, open, "channel should be closed after cancel")
}
