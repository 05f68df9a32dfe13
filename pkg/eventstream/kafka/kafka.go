// Package kafka implements the event publisher on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/packratco/packrat/pkg/eventstream"
)

// DefaultTopic is the default topic fact events are written to.
const DefaultTopic = "packrat.facts"

// Publisher writes fact events to a Kafka topic, keyed by owner so one
// owner's mutations stay ordered within a partition.
type Publisher struct {
	writer *kafkago.Writer
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses.
	Brokers []string

	// Topic is the topic to write to. Defaults to DefaultTopic if empty.
	Topic string
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher needs at least one broker")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(cfg.Brokers...),
			Topic:    topic,
			Balancer: &kafkago.Hash{},
		},
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, event *eventstream.FactEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encoding event: %v", eventstream.ErrPublish, err)
	}

	msg := kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.OwnerID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", eventstream.ErrPublish, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
