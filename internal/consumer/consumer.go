package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/joejoe2/spring-chat-sub000/internal/models"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// MessageEventConsumer tails the message-event topic the producer feeds.
// Events are an operational copy of the delivery pipeline, not part of it;
// a consumer outage never blocks chat.
type MessageEventConsumer struct {
	log *logger.Logger
}

func NewMessageEventConsumer(log *logger.Logger) *MessageEventConsumer {
	return &MessageEventConsumer{log: log}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *MessageEventConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (c *MessageEventConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim drains one partition claim. Malformed events are logged and
// marked so a bad record cannot wedge the partition.
func (c *MessageEventConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		var msg models.Message
		if err := json.Unmarshal(record.Value, &msg); err != nil {
			c.log.Warn("dropping malformed message event",
				zap.String("topic", record.Topic),
				zap.Int32("partition", record.Partition),
				zap.Int64("offset", record.Offset),
				zap.Error(err),
			)
			session.MarkMessage(record, "")
			continue
		}

		c.log.Info("message event",
			zap.Int64("message_id", msg.ID),
			zap.String("channel_kind", string(msg.ChannelKind)),
			zap.String("channel_id", msg.ChannelID),
			zap.String("type", string(msg.Type)),
			zap.String("sender_id", msg.SenderID),
		)

		session.MarkMessage(record, "")
	}
	return nil
}

// StartConsumer joins the consumer group and keeps consuming until ctx is
// cancelled. Claims restart automatically after rebalances.
func StartConsumer(ctx context.Context, brokers []string, groupID, topic string, consumer *MessageEventConsumer, log *logger.Logger) error {
	cfg := sarama.NewConfig()
	cfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return err
	}

	go func() {
		defer func() { _ = client.Close() }()
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Warn("message event consumer error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}
