package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/pubsub"
	"github.com/joejoe2/spring-chat-sub000/internal/utils"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
	"github.com/joejoe2/spring-chat-sub000/pkg/mq"
)

// Publisher is the outbound half of the message bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any)
}

// Deliverer pushes persisted messages toward their audience. Delivery runs on
// the worker pool, decoupled from the request that created the message; the
// request returns once the message is durable, fanout follows best effort.
type Deliverer struct {
	bus      Publisher
	pool     *utils.WorkerPool
	producer *mq.KafkaProducer
	log      *logger.Logger
}

func NewDeliverer(bus Publisher, pool *utils.WorkerPool, producer *mq.KafkaProducer, log *logger.Logger) *Deliverer {
	return &Deliverer{
		bus:      bus,
		pool:     pool,
		producer: producer,
		log:      log,
	}
}

// Deliver queues one broker publish per audience subject plus the
// message-created event.
func (d *Deliverer) Deliver(msg *models.Message, subjects []string) {
	d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, subject := range subjects {
			d.bus.Publish(ctx, subject, msg)
		}
		if err := d.producer.SendMessage(msg.ChannelID, msg); err != nil {
			d.log.Warn("failed to emit message event",
				zap.Int64("message_id", msg.ID), zap.Error(err))
		}
	})
}

// publicAudience is the channel subject itself; public fanout is keyed by
// channel, not by user.
func publicAudience(channelID string) []string {
	return []string{pubsub.PublicSubject(channelID)}
}

// privateAudience targets both pairing members, sender included, so every
// open device of either user sees the message.
func privateAudience(c *models.PrivateChannel) []string {
	subjects := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		subjects = append(subjects, pubsub.PrivateSubject(m.ID))
	}
	return subjects
}

// groupAudience targets every current member, plus the affected user of an
// INVITATION or LEAVE transition: the invitee is not a member yet, the
// removed user no longer is, and both still need the push.
func groupAudience(c *models.GroupChannel, msg *models.Message) []string {
	subjects := make([]string, 0, len(c.Members)+1)
	seen := make(map[string]bool, len(c.Members)+1)
	for _, m := range c.Members {
		subjects = append(subjects, pubsub.GroupSubject(m.ID))
		seen[m.ID] = true
	}
	if msg.Type == models.MessageTypeInvitation || msg.Type == models.MessageTypeLeave {
		if affected, ok := msg.AffectedMember(); ok && !seen[affected.ID] {
			subjects = append(subjects, pubsub.GroupSubject(affected.ID))
		}
	}
	return subjects
}
