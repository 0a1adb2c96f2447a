// Package kafka publishes domain events to Kafka topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/IBM/sarama"
)

// Message is one record bound for a topic. Key selects the partition so all
// events of an aggregate stay ordered.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

type Producer struct {
	sync sarama.SyncProducer
}

// NewProducer dials brokers with an idempotent, all-acks sync producer.
func NewProducer(brokers []string, clientID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers")
	}
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: dial %v: %w", brokers, err)
	}
	return &Producer{sync: sync}, nil
}

func NewProducerFrom(sync sarama.SyncProducer) *Producer {
	return &Producer{sync: sync}
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Message{Topic: topic, Key: key, Value: payload, Headers: headers}
	if _, _, err := p.sync.SendMessage(msg.encode()); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

// PublishBatch sends msgs in one round trip. Failed messages are reported
// together; the rest are delivered.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out := make([]*sarama.ProducerMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.encode()
	}
	err := p.sync.SendMessages(out)
	var perMessage sarama.ProducerErrors
	if !errors.As(err, &perMessage) {
		return err
	}
	failed := make([]error, 0, len(perMessage))
	for _, pe := range perMessage {
		key, _ := pe.Msg.Key.Encode()
		failed = append(failed, fmt.Errorf("kafka: publish to %s key %s: %w", pe.Msg.Topic, key, pe.Err))
	}
	return errors.Join(failed...)
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

func (m Message) encode() *sarama.ProducerMessage {
	names := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		names = append(names, k)
	}
	slices.Sort(names)
	hs := make([]sarama.RecordHeader, 0, len(names))
	for _, k := range names {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(m.Headers[k])})
	}
	return &sarama.ProducerMessage{
		Topic:   m.Topic,
		Key:     sarama.StringEncoder(m.Key),
		Value:   sarama.ByteEncoder(m.Value),
		Headers: hs,
	}
}
