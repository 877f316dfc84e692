// Package publish announces newly ingested items on a Kafka topic so
// downstream consumers do not have to poll the store. The announcement is
// best-effort: the store and the CSV log stay authoritative.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/erictseng47/Stock/internal/models"
)

// Publisher writes ingested-item events.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// New builds a publisher for the given brokers and topic.
func New(brokers []string, topic string, log *slog.Logger) *Publisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
	})
	return &Publisher{writer: writer, log: log}
}

// Announce publishes one JSON message per item, keyed by news id.
func (p *Publisher) Announce(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal news %d: %w", item.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(item.ID, 10)),
			Value: payload,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish ingested news: %w", err)
	}

	p.log.Debug("announced ingested news", slog.Int("count", len(msgs)))
	return nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
