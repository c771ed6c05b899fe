package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	size    atomic.Int64
	dropped atomic.Int64
	evicted atomic.Int64
}

func (o *countingObserver) SubscribersChanged(n int)  { o.size.Store(int64(n)) }
func (o *countingObserver) HeartbeatDropped()         { o.dropped.Add(1) }
func (o *countingObserver) SubscriberEvicted(error)   { o.evicted.Add(1) }

func next(t *testing.T, sub *Subscription) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.Next(ctx)
	require.NoError(t, err)
	return msg
}

func TestHub_PublishFansOutByKey(t *testing.T) {
	h := NewHub(Options{Buffer: 8})
	all := h.Subscribe("ALL")
	rack := h.Subscribe("RACK:3")
	otherRack := h.Subscribe("RACK:9")

	n := h.Publish([]string{"ALL", "EQUIPMENT:7", "RACK:3"}, NewEvent("alert", 1))
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, next(t, all).Payload)
	assert.Equal(t, 1, next(t, rack).Payload)
	assert.Equal(t, 0, otherRack.Pending())
}

func TestHub_DeliversOncePerSubscription(t *testing.T) {
	h := NewHub(Options{Buffer: 8})
	sub := h.Subscribe("RACK:3")

	n := h.Publish([]string{"RACK:3", "RACK:3"}, NewEvent("alert", "x"))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sub.Pending())
}

func TestHub_FIFOPerSubscriber(t *testing.T) {
	h := NewHub(Options{Buffer: 1024})
	sub := h.Subscribe("ALL")

	var wg sync.WaitGroup
	var seq atomic.Int64
	var order sync.Mutex
	published := make([]int64, 0, 400)
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				order.Lock()
				v := seq.Add(1)
				h.Publish([]string{"ALL"}, NewEvent("alert", v))
				published = append(published, v)
				order.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, want := range published {
		assert.Equal(t, want, next(t, sub).Payload)
	}
}

func TestHub_FullQueueDropsOldestHeartbeat(t *testing.T) {
	obs := &countingObserver{}
	h := NewHub(Options{Buffer: 3, Observer: obs})
	sub := h.Subscribe("ALL")

	h.Broadcast(NewHeartbeat())
	h.Publish([]string{"ALL"}, NewEvent("alert", "a"))
	h.Broadcast(NewHeartbeat())
	// 队列已满，丢弃最早的心跳
	h.Publish([]string{"ALL"}, NewEvent("alert", "b"))

	assert.Equal(t, int64(1), obs.dropped.Load())
	assert.Equal(t, "a", next(t, sub).Payload)
	assert.True(t, next(t, sub).Heartbeat)
	assert.Equal(t, "b", next(t, sub).Payload)
}

func TestHub_HeartbeatDroppedWhenQueueFullOfEvents(t *testing.T) {
	obs := &countingObserver{}
	h := NewHub(Options{Buffer: 2, Observer: obs})
	sub := h.Subscribe("ALL")

	h.Publish([]string{"ALL"}, NewEvent("alert", "a"))
	h.Publish([]string{"ALL"}, NewEvent("alert", "b"))
	h.Broadcast(NewHeartbeat())

	assert.Equal(t, int64(1), obs.dropped.Load())
	assert.NoError(t, sub.Err())
	assert.Equal(t, 2, sub.Pending())
}

func TestHub_UnresponsiveSubscriberIsDisconnected(t *testing.T) {
	obs := &countingObserver{}
	h := NewHub(Options{Buffer: 2, Observer: obs})
	slow := h.Subscribe("ALL")
	fast := h.Subscribe("ALL")

	for i := 0; i < 2; i++ {
		h.Publish([]string{"ALL"}, NewEvent("alert", i))
		next(t, fast)
	}
	n := h.Publish([]string{"ALL"}, NewEvent("alert", 2))

	assert.Equal(t, 1, n)
	assert.ErrorIs(t, slow.Err(), ErrSlowConsumer)
	assert.Equal(t, int64(1), obs.evicted.Load())
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, next(t, fast).Payload)

	_, err := slow.Next(context.Background())
	assert.ErrorIs(t, err, ErrSlowConsumer)
}

func TestHub_CloseRemovesSubscription(t *testing.T) {
	obs := &countingObserver{}
	h := NewHub(Options{Observer: obs})
	sub := h.Subscribe("DATACENTER:1")
	assert.Equal(t, int64(1), obs.size.Load())

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, int64(0), obs.size.Load())
	assert.Equal(t, 0, h.Publish([]string{"DATACENTER:1"}, NewEvent("alert", 1)))

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestHub_NextDrainsBeforeReportingClose(t *testing.T) {
	h := NewHub(Options{})
	sub := h.Subscribe("ALL")
	h.Publish([]string{"ALL"}, NewEvent("alert", "last"))
	sub.Close()

	assert.Equal(t, "last", next(t, sub).Payload)
	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHub_NextWakesOnPublish(t *testing.T) {
	h := NewHub(Options{})
	sub := h.Subscribe("ALL")

	got := make(chan Message, 1)
	go func() {
		msg, err := sub.Next(context.Background())
		if err == nil {
			got <- msg
		}
	}()

	time.Sleep(10 * time.Millisecond)
	h.Publish([]string{"ALL"}, NewEvent("alert", "wake"))

	select {
	case msg := <-got:
		assert.Equal(t, "wake", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up")
	}
}

func TestHub_RunSendsHeartbeats(t *testing.T) {
	h := NewHub(Options{HeartbeatInterval: 10 * time.Millisecond})
	sub := h.Subscribe("RACK:1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	assert.True(t, next(t, sub).Heartbeat)
}

func TestHub_CloseClosesEverything(t *testing.T) {
	h := NewHub(Options{})
	a := h.Subscribe("ALL")
	b := h.Subscribe("RACK:1")
	h.Close()

	assert.ErrorIs(t, a.Err(), ErrClosed)
	assert.ErrorIs(t, b.Err(), ErrClosed)
	assert.Equal(t, 0, h.Len())

	late := h.Subscribe("ALL")
	assert.ErrorIs(t, late.Err(), ErrClosed)
	assert.Equal(t, 0, h.Len())
}

func TestHub_SubscribeRacingCloseNeverLeaksSubscription(t *testing.T) {
	for round := 0; round < 50; round++ {
		h := NewHub(Options{})
		start := make(chan struct{})
		subs := make(chan *Subscription, 16)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				subs <- h.Subscribe("ALL")
			}()
		}
		close(start)
		h.Close()
		wg.Wait()
		close(subs)

		for sub := range subs {
			assert.ErrorIs(t, sub.Err(), ErrClosed)
		}
		assert.Equal(t, 0, h.Len())
	}
}
