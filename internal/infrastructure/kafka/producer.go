package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"intake/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg Config) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: w}
}

func (p *Producer) SendMessage(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	err := p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:     key,
			Value:   value,
			Headers: headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Publish parks an unprocessable delivery on the dead-letter topic with
// its origin in the headers.
func (p *Producer) Publish(ctx context.Context, msg event.Message, reason string) error {
	return p.SendMessage(ctx, msg.Key, msg.Value, deadLetterHeaders(msg, reason)...)
}

func deadLetterHeaders(msg event.Message, reason string) []kafka.Header {
	return []kafka.Header{
		{Key: "origin-topic", Value: []byte(msg.Topic)},
		{Key: "origin-partition", Value: []byte(strconv.Itoa(msg.Partition))},
		{Key: "origin-offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		{Key: "error", Value: []byte(reason)},
	}
}

func (p *Producer) GetTopic() string {
	return p.writer.Topic
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
