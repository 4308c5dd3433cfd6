package subscriber

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	assert.Equal(t, []byte("[]"), ConnectFrame())
	assert.Equal(t, []byte(`[{"id":1}]`), Frame([]byte(`{"id":1}`)))
}

func TestSSESinkSend(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec, 0)
	require.NoError(t, err)

	require.NoError(t, sink.Send(ConnectFrame()))
	require.NoError(t, sink.Send(Frame([]byte(`{"id":1}`))))

	assert.Equal(t, "data: []\n\ndata: [{\"id\":1}]\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSSESinkSendAfterClose(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec, 0)
	require.NoError(t, err)

	sink.Close()
	assert.ErrorIs(t, sink.Send([]byte("[]")), ErrSinkClosed)
}

func TestSSESinkFinishHooksRunOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec, 0)
	require.NoError(t, err)

	var calls atomic.Int32
	sink.OnFinished(func() { calls.Add(1) })

	sink.Close()
	sink.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestSSESinkLateHookRunsImmediately(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec, 0)
	require.NoError(t, err)
	sink.Close()

	called := false
	sink.OnFinished(func() { called = true })
	assert.True(t, called)
}

func TestSSESinkSessionCeiling(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec, 20*time.Millisecond)
	require.NoError(t, err)

	done := make(chan struct{})
	sink.OnFinished(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session ceiling did not finish the sink")
	}
	assert.ErrorIs(t, sink.Send([]byte("[]")), ErrSinkClosed)
}

func TestSSESinkWait(t *testing.T) {
	t.Run("returns when the sink finishes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sink, err := NewSSESink(rec, 0)
		require.NoError(t, err)

		go func() {
			time.Sleep(10 * time.Millisecond)
			sink.Close()
		}()
		sink.Wait(context.Background())
	})

	t.Run("closes the sink when the context ends", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sink, err := NewSSESink(rec, 0)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sink.Wait(ctx)
		assert.ErrorIs(t, sink.Send([]byte("[]")), ErrSinkClosed)
	})
}
