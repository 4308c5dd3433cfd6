package mq

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaProducer emits message-created events for downstream consumers
// (search indexing, archival). The chat write path treats it as best effort:
// a nil *KafkaProducer is a valid, disabled producer.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
	}, nil
}

// SendMessage publishes event as JSON keyed by key, so events sharing a key
// land on one partition and keep their order.
func (k *KafkaProducer) SendMessage(key string, event any) error {
	if k == nil {
		return nil
	}
	bytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}

	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (k *KafkaProducer) Close() error {
	if k == nil {
		return nil
	}
	return k.producer.Close()
}
