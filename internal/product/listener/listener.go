package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/auth"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventStockUpdated = "StockUpdated"

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type StockListener struct {
	consumer   MessageReader
	uc         product.UseCase
	logger     logger.ZapLogger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewStockListener(consumer MessageReader, uc product.UseCase, logger logger.ZapLogger) *StockListener {
	return &StockListener{
		consumer:   consumer,
		uc:         uc,
		logger:     logger,
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Start consumes until ctx ends. A message is committed once it is applied or
// found unprocessable; failed updates are retried and keep their offset.
func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("Starting stock Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping stock Kafka listener")
			return
		default:
			msg, err := l.consumer.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				if !l.sleep(ctx, l.backoff) {
					return
				}
				continue
			}
			if !l.handle(ctx, msg) {
				return
			}
			if err := l.consumer.CommitMessages(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to commit kafka message",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

// handle retries msg until it is processed. It returns false if ctx ends first.
func (l *StockListener) handle(ctx context.Context, msg kafka.Message) bool {
	delay := l.backoff
	for attempt := 1; ; attempt++ {
		err := l.processMessage(ctx, msg.Value)
		if err == nil {
			return true
		}
		l.logger.Error("Failed to apply stock update, retrying",
			zap.Int("attempt", attempt),
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		if !l.sleep(ctx, delay) {
			return false
		}
		delay = min(delay*2, l.maxBackoff)
	}
}

func (l *StockListener) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type StockUpdatedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   dto.StockUpdate `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// processMessage returns an error only when the update may succeed on retry.
func (l *StockListener) processMessage(ctx context.Context, value []byte) error {
	var event StockUpdatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return nil
	}
	if event.EventType != EventStockUpdated {
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID),
		zap.String("product_id", event.Payload.ProductID),
	}
	if event.Payload.VariantID != nil {
		fields = append(fields, zap.String("variant_id", *event.Payload.VariantID))
	}

	ctx = auth.WithUserID(ctx, auth.SystemActor)
	if err := l.uc.UpdateStock(ctx, &event.Payload); err != nil {
		// unknown products and bad payloads will never succeed; skip them
		if apperr.IsNotFound(err) || apperr.IsValidation(err) || apperr.IsConflict(err) {
			l.logger.Warn("Skipping stock update", append(fields, zap.Error(err))...)
			return nil
		}
		return err
	}
	l.logger.Debug("Stock updated", fields...)
	return nil
}
