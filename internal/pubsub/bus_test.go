package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// setupTestBus runs a Bus against a miniredis instance and collects every
// inbound frame.
func setupTestBus(t *testing.T) (*Bus, *frameRecorder) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &frameRecorder{}
	bus := NewBus(rdb, logger.NewNopLogger())
	bus.Start(context.Background(), rec.record)
	t.Cleanup(func() { _ = bus.Close() })

	return bus, rec
}

type frame struct {
	subject string
	payload string
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []frame
}

func (r *frameRecorder) record(subject string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame{subject: subject, payload: string(payload)})
}

func (r *frameRecorder) snapshot() []frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frame(nil), r.frames...)
}

func (r *frameRecorder) waitFor(t *testing.T, n int) []frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(r.snapshot()))
	return nil
}

func TestBusPublishSubscribe(t *testing.T) {
	bus, rec := setupTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, PublicSubject("c1")))

	bus.Publish(ctx, PublicSubject("c1"), map[string]string{"content": "hello"})

	frames := rec.waitFor(t, 1)
	assert.Equal(t, PublicSubject("c1"), frames[0].subject)
	assert.JSONEq(t, `{"content":"hello"}`, frames[0].payload)
}

func TestBusIgnoresOtherSubjects(t *testing.T) {
	bus, rec := setupTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, PrivateSubject("u1")))

	bus.Publish(ctx, PrivateSubject("u2"), "ignored")
	bus.Publish(ctx, PrivateSubject("u1"), "kept")

	frames := rec.waitFor(t, 1)
	require.Len(t, frames, 1)
	assert.Equal(t, PrivateSubject("u1"), frames[0].subject)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus, rec := setupTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, GroupSubject("u1")))
	bus.Publish(ctx, GroupSubject("u1"), "first")
	rec.waitFor(t, 1)

	require.NoError(t, bus.Unsubscribe(ctx, GroupSubject("u1")))
	bus.Publish(ctx, GroupSubject("u1"), "second")

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestBusPublishEncodeFailure(t *testing.T) {
	bus, rec := setupTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, PublicSubject("c1")))

	// Channels cannot be marshalled; the failure must stay inside the bus.
	bus.Publish(ctx, PublicSubject("c1"), make(chan int))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
