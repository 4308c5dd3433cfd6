package subscriber

import (
	"context"
	"sync"

	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// Broker is the slice of the message bus the registry drives: one durable
// subscription per subject with local interest.
type Broker interface {
	Subscribe(ctx context.Context, subject string) error
	Unsubscribe(ctx context.Context, subject string) error
}

// Registry multiplexes the live sinks of one channel kind over shared broker
// subscriptions. Keys are channel IDs for public fanout and user IDs for
// private and group fanout; the subject function renders a key into its
// broker subject.
//
// All map transitions happen under one mutex, including the broker calls
// themselves: the first sink of a key subscribes before the set exists, the
// last sink leaving unsubscribes and drops the set in the same critical
// section. Concurrent register/unregister on the same key can therefore
// never strand a subscription or a sink set.
type Registry struct {
	broker  Broker
	subject func(key string) string
	pool    *FanoutPool
	log     *logger.Logger

	mu    sync.Mutex
	sinks map[string]map[Sink]struct{}
}

func NewRegistry(broker Broker, subject func(string) string, pool *FanoutPool, log *logger.Logger) *Registry {
	return &Registry{
		broker:  broker,
		subject: subject,
		pool:    pool,
		log:     log,
		sinks:   make(map[string]map[Sink]struct{}),
	}
}

// Register attaches sink under key, subscribing the key's subject when this
// is the key's first sink. It installs the finish hook that detaches the
// sink again; the hook fires exactly once however the sink ends.
func (r *Registry) Register(ctx context.Context, key string, sink Sink) error {
	r.mu.Lock()
	set, ok := r.sinks[key]
	if !ok {
		if err := r.broker.Subscribe(ctx, r.subject(key)); err != nil {
			r.mu.Unlock()
			return err
		}
		set = make(map[Sink]struct{})
		r.sinks[key] = set
	}
	set[sink] = struct{}{}
	r.mu.Unlock()

	sink.OnFinished(func() {
		r.Unregister(context.Background(), key, sink)
	})
	return nil
}

// Unregister detaches sink from key, unsubscribing the key's subject when the
// last sink leaves. Detaching a sink that is not attached is a no-op.
func (r *Registry) Unregister(ctx context.Context, key string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sinks[key]
	if !ok {
		return
	}
	if _, attached := set[sink]; !attached {
		return
	}
	delete(set, sink)
	if len(set) > 0 {
		return
	}
	delete(r.sinks, key)
	if err := r.broker.Unsubscribe(ctx, r.subject(key)); err != nil {
		r.log.Error("failed to unsubscribe subject",
			zap.String("subject", r.subject(key)), zap.Error(err))
	}
}

// Dispatch hands frame to every sink attached under key. Sends run on the
// fanout pool, sharded by key so per-key order survives; a sink whose send
// fails is logged and closed, which triggers its finish hook and detaches
// it while the remaining sinks keep receiving.
func (r *Registry) Dispatch(key string, frame []byte) {
	r.mu.Lock()
	set, ok := r.sinks[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	targets := make([]Sink, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		sink := s
		r.pool.Submit(key, func() {
			if err := sink.Send(frame); err != nil {
				r.log.Warn("dropping sink after failed send",
					zap.String("key", key), zap.Error(err))
				sink.Close()
			}
		})
	}
}

// Count reports the number of sinks attached under key.
func (r *Registry) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks[key])
}
