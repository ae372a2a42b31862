package entries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventEntryCreated EventType = "entry.created"
	EventEntryUpdated EventType = "entry.updated"
	EventEntryDeleted EventType = "entry.deleted"
)

// EntryEvent is published after every successful entry write.
type EntryEvent struct {
	Type    EventType `json:"type"`
	EntryID string    `json:"entryId"`
	UserID  string    `json:"userId"`
	DateDay string    `json:"dateDay"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, event EntryEvent) error
	Close() error
}

var (
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = NoopNotifier{}
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes the entry events to a kafka topic, keyed by user ID,
// so the events of one user stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event EntryEvent) error {
	eventJson, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal entry event: %w", err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: eventJson,
		Time:  event.At,
	}); err != nil {
		return fmt.Errorf("write entry event: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// NoopNotifier drops all events; used when no brokers are configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, EntryEvent) error { return nil }

func (NoopNotifier) Close() error { return nil }
