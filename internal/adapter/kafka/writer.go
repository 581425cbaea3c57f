package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/german-heritage-map/internal/config"
	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/store"
)

// Header keys attached to every snapshot message.
const (
	HeaderSourceDigest = "source_digest"
	HeaderLoadedAt     = "loaded_at"
)

// Writer publishes marker store snapshots to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot writes every marker in the store as one message keyed by
// marker ID. Keyed hashing keeps each marker's history on one partition.
func (w *Writer) PublishSnapshot(ctx context.Context, s *store.Store) error {
	markers := s.All()
	if len(markers) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(markers))
	for i := range markers {
		msg, err := serializeToMessage(markers[i], s.Digest(), s.LoadedAt())
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", s.Digest(), err)
	}
	w.logger.Info("snapshot published", "topic", w.writer.Topic, "markers", len(msgs), "digest", s.Digest())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Marker into a Kafka message.
func serializeToMessage(m domain.Marker, digest string, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker %s: %w", m.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(m.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderSourceDigest, Value: []byte(digest)},
			{Key: HeaderLoadedAt, Value: []byte(loadedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
