package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub(4)

	id1, ch1 := h.Subscribe()
	id2, ch2 := h.Subscribe()
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, h.Len())

	n := h.Broadcast("worker_registered", map[string]string{"workerID": "JRCW1"})
	assert.Equal(t, 2, n)

	ev := <-ch1
	assert.Equal(t, "worker_registered", ev.Name)
	<-ch2

	h.Unsubscribe(id1)
	_, open := <-ch1
	assert.False(t, open, "unsubscribed channel must be closed")
	assert.Equal(t, 1, h.Len())

	// unknown id is ignored
	h.Unsubscribe(999)

	assert.Equal(t, 1, h.Broadcast("worker_registered", nil))
}

func TestHub_FullSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub(1)
	_, slow := h.Subscribe()
	_, fast := h.Subscribe()

	assert.Equal(t, 2, h.Broadcast("a", 1))
	<-fast

	// slow never drained; only fast receives
	assert.Equal(t, 1, h.Broadcast("b", 2))
	ev := <-fast
	assert.Equal(t, "b", ev.Name)

	first := <-slow
	assert.Equal(t, "a", first.Name)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(0)
	_, ch := h.Subscribe()
	h.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())

	_, late := h.Subscribe()
	_, open = <-late
	assert.False(t, open)
	assert.Equal(t, 0, h.Broadcast("x", nil))
}

func TestHub_ConcurrentUse(t *testing.T) {
	h := NewHub(64)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, ch := h.Subscribe()
			h.Broadcast("tick", nil)
			h.Unsubscribe(id)
			for range ch {
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, h.Len())
}
