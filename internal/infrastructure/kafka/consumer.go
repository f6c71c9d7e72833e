package kafka

import (
	"context"
	"strings"
	"time"

	"intake/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

// Consumer reads one topic as part of a consumer group. Offsets are only
// committed through Commit.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a group reader. startOffset applies when the group
// has no committed offset yet: "earliest" (default) or "latest".
func NewConsumer(brokers []string, topic, groupID, startOffset string) *Consumer {
	offset := kafka.FirstOffset
	if strings.EqualFold(strings.TrimSpace(startOffset), "latest") {
		offset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: false, // Force IPv4
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		Dialer:         dialer,
		StartOffset:    offset,
		CommitInterval: 0, // synchronous commits
	})
	return &Consumer{reader: r}
}

func (c *Consumer) Fetch(ctx context.Context) (event.Message, error) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return event.Message{}, err
	}
	return toEvent(m), nil
}

// Commit acknowledges msg and every earlier message of its partition.
func (c *Consumer) Commit(ctx context.Context, msg event.Message) error {
	return c.reader.CommitMessages(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	})
}

func (c *Consumer) Topic() string {
	return c.reader.Config().Topic
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func toEvent(m kafka.Message) event.Message {
	return event.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
	}
}
