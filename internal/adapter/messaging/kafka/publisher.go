package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pix-wallet/config"
	"pix-wallet/internal/core/domain"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// TransferEvent is the message value written to the transfers topic.
type TransferEvent struct {
	EventType           string `json:"event_type"`
	EndToEndID          string `json:"end_to_end_id"`
	SourceWalletID      string `json:"source_wallet_id"`
	DestinationWalletID string `json:"destination_wallet_id"`
	Amount              string `json:"amount"`
	Status              string `json:"status"`
	OccurredAt          string `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implements ports.TransferEventPublisher on a Kafka topic.
// Messages are keyed by end-to-end id so one transfer's events stay ordered.
type Publisher struct {
	writer messageWriter
	log    zerolog.Logger
}

// defaultBatchTimeout caps how long a lone event waits for a batch to fill.
// Publish is called on the request path.
const defaultBatchTimeout = 10 * time.Millisecond

// NewPublisher creates a Kafka-backed transfer event publisher.
func NewPublisher(cfg config.KafkaConfig, log zerolog.Logger) *Publisher {
	w := newWriter(cfg)

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka transfer event publisher configured")

	return newPublisher(w, log)
}

func newWriter(cfg config.KafkaConfig) *kafkago.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: batchTimeout,
	}
}

func newPublisher(w messageWriter, log zerolog.Logger) *Publisher {
	return &Publisher{writer: w, log: log}
}

// Publish writes one transfer event.
func (p *Publisher) Publish(ctx context.Context, eventType string, t *domain.Transfer) error {
	payload, err := json.Marshal(TransferEvent{
		EventType:           eventType,
		EndToEndID:          t.CorrelationID,
		SourceWalletID:      t.SourceWalletID.String(),
		DestinationWalletID: t.DestinationWalletID.String(),
		Amount:              domain.FormatAmount(t.Amount),
		Status:              string(t.Status),
		OccurredAt:          t.StatusUpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal transfer event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(t.CorrelationID),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write transfer event: %w", err)
	}

	p.log.Debug().
		Str("event_type", eventType).
		Str("end_to_end_id", t.CorrelationID).
		Msg("transfer event published")
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *domain.Transfer) error { return nil }
