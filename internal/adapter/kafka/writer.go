package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-temperature-etl/internal/config"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// chunkSize bounds how many messages are handed to the producer per call.
const chunkSize = 5000

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes hourly readings to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

// Name implements pipeline.Loader.
func (w *Writer) Name() string { return "kafka" }

// Load publishes one message per reading. Messages are keyed by station and
// hour so a partition sees each station in order.
func (w *Writer) Load(ctx context.Context, rows []domain.HourlyReading) error {
	if len(rows) == 0 {
		return nil
	}
	normalizedAt := domain.Now()

	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, r := range rows[start:end] {
			msg, err := serializeToMessage(r, normalizedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish to %s: %w", w.topic, err)
		}
	}
	w.logger.Info("published hourly readings", "topic", w.topic, "messages", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey is the key of the message for one station-hour.
func MessageKey(r domain.HourlyReading) string {
	return r.Station + "|" + r.Time.UTC().Format(time.RFC3339)
}

// serializeToMessage marshals an HourlyReading into a Kafka message.
func serializeToMessage(r domain.HourlyReading, normalizedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hourly reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(r.Station)},
			{Key: "normalized_at", Value: []byte(normalizedAt.Format(time.RFC3339))},
		},
	}, nil
}
