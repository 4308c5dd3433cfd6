package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// Handler consumes one inbound broker frame.
type Handler func(subject string, payload []byte)

// Bus adapts Redis pub/sub to the fanout core. The whole process shares one
// *redis.PubSub connection; subjects are added and removed dynamically as
// local interest appears and disappears, and a single inbound goroutine feeds
// every received frame to the handler.
type Bus struct {
	rdb *redis.Client
	log *logger.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub

	done chan struct{}
}

func NewBus(rdb *redis.Client, log *logger.Logger) *Bus {
	return &Bus{
		rdb:  rdb,
		log:  log,
		done: make(chan struct{}),
	}
}

// Start opens the shared subscription connection and launches the inbound
// loop. It must be called once, before any Subscribe.
func (b *Bus) Start(ctx context.Context, handler Handler) {
	b.mu.Lock()
	b.pubsub = b.rdb.Subscribe(ctx)
	ch := b.pubsub.Channel()
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
}

// Subscribe adds a subject to the shared connection.
func (b *Bus) Subscribe(ctx context.Context, subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubsub.Subscribe(ctx, subject)
}

// Unsubscribe removes a subject from the shared connection.
func (b *Bus) Unsubscribe(ctx context.Context, subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubsub.Unsubscribe(ctx, subject)
}

// Publish sends v as JSON to the subject. Delivery is fire-and-forget:
// failures are logged and never bubble into the write path that called us.
func (b *Bus) Publish(ctx context.Context, subject string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Error("failed to encode broker payload",
			zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, subject, payload).Err(); err != nil {
		b.log.Error("failed to publish to broker",
			zap.String("subject", subject), zap.Error(err))
	}
}

// Close stops the inbound loop and tears down the shared connection.
func (b *Bus) Close() error {
	close(b.done)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
