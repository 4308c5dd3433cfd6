package subscriber

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// SSESink pushes frames as server-sent events. Every sink carries a hard
// session ceiling; when it fires the sink finishes and the client is expected
// to reconnect.
type SSESink struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu    sync.Mutex
	fin   finisher
	timer *time.Timer
}

// NewSSESink wraps w, which must support flushing. ttl is the hard session
// ceiling; zero disables it.
func NewSSESink(w http.ResponseWriter, ttl time.Duration) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	s := &SSESink{
		w:       w,
		flusher: flusher,
		fin:     newFinisher(),
	}
	if ttl > 0 {
		s.timer = time.AfterFunc(ttl, s.Close)
	}
	return s, nil
}

func (s *SSESink) Send(frame []byte) error {
	s.mu.Lock()
	if s.fin.finished() {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	_, err := fmt.Fprintf(s.w, "data: %s\n\n", frame)
	if err != nil {
		hooks := s.fin.finish()
		s.stopTimer()
		s.mu.Unlock()
		runHooks(hooks)
		return err
	}
	s.flusher.Flush()
	s.mu.Unlock()
	return nil
}

func (s *SSESink) Close() {
	s.mu.Lock()
	hooks := s.fin.finish()
	s.stopTimer()
	s.mu.Unlock()
	runHooks(hooks)
}

func (s *SSESink) OnFinished(fn func()) {
	s.mu.Lock()
	queued := s.fin.addHook(fn)
	s.mu.Unlock()
	if !queued {
		fn()
	}
}

// Wait blocks the request goroutine until the sink finishes or ctx ends,
// closing the sink on the latter.
func (s *SSESink) Wait(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Close()
	case <-s.fin.done:
	}
}

func (s *SSESink) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}
