package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	t.Run("accepts valid worker IDs", func(t *testing.T) {
		for _, id := range []int64{0, 1, 512, 1023} {
			g, err := NewGenerator(id)
			require.NoError(t, err)
			assert.NotNil(t, g)
		}
	})

	t.Run("rejects out-of-range worker IDs", func(t *testing.T) {
		for _, id := range []int64{-1, 1024, 99999} {
			_, err := NewGenerator(id)
			assert.ErrorIs(t, err, ErrInvalidWorkerID)
		}
	})
}

func TestNextID(t *testing.T) {
	g, err := NewGenerator(7)
	require.NoError(t, err)

	t.Run("IDs are strictly increasing", func(t *testing.T) {
		var prev int64
		for i := 0; i < 10000; i++ {
			id, err := g.NextID()
			require.NoError(t, err)
			require.Greater(t, id, prev)
			prev = id
		}
	})

	t.Run("encodes the worker ID", func(t *testing.T) {
		id, err := g.NextID()
		require.NoError(t, err)
		assert.Equal(t, int64(7), WorkerID(id))
	})

	t.Run("encodes a recent timestamp", func(t *testing.T) {
		id, err := g.NextID()
		require.NoError(t, err)
		assert.InDelta(t, time.Now().UnixMilli(), Timestamp(id), 1000)
	})
}

func TestNextIDConcurrent(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := g.NextID()
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}
