package events

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSink forwards bus events to a Kafka topic, keyed by business id so one
// business's events stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver events to kafka",
					zap.Int("count", len(messages)),
					zap.Error(err))
			}
		},
	}

	return &KafkaSink{
		writer: writer,
		logger: logger,
	}
}

// Handle is a bus Handler. The writer is async, so this never waits on brokers.
func (s *KafkaSink) Handle(ctx context.Context, e Event) {
	msg, err := Message(e)
	if err != nil {
		s.logger.Error("Failed to encode event", zap.String("kind", string(e.Kind)), zap.Error(err))
		return
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue event", zap.String("kind", string(e.Kind)), zap.Error(err))
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Message encodes e with event_id and event_type headers.
func Message(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(e.BusinessID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID)},
			{Key: "event_type", Value: []byte(e.Kind)},
		},
	}, nil
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
