// Package ingest consumes order commands from Kafka and applies them to
// the engine, preserving partition order as the book's arrival order.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"kestrel/domain/book"
	"kestrel/service"
)

// Command is the wire format of one order instruction.
type Command struct {
	Action   string `json:"action"` // submit | cancel | modify
	ID       uint64 `json:"id"`
	Side     string `json:"side"` // buy | sell
	Kind     string `json:"kind"` // limit | market
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	NewPrice *int64 `json:"newPrice,omitempty"`
	NewQty   *int64 `json:"newQty,omitempty"`
}

type Consumer struct {
	reader *kafka.Reader
	engine *service.Engine
	log    *zap.Logger
}

func New(brokers []string, topic string, engine *service.Engine, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, engine: engine, log: log}
}

// Run reads until ctx is done. Malformed or rejected commands are logged
// and skipped; the stream keeps flowing.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("ingest consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		var cmd Command
		if err := json.Unmarshal(msg.Value, &cmd); err != nil {
			c.log.Warn("malformed command skipped",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		if err := c.apply(cmd); err != nil {
			c.log.Warn("command rejected",
				zap.String("action", cmd.Action),
				zap.Uint64("order_id", cmd.ID),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

func (c *Consumer) apply(cmd Command) error {
	switch cmd.Action {
	case "submit":
		side, err := ParseSide(cmd.Side)
		if err != nil {
			return err
		}
		kind, err := ParseKind(cmd.Kind)
		if err != nil {
			return err
		}
		_, err = c.engine.Submit(service.SubmitRequest{
			ID:       cmd.ID,
			Side:     side,
			Kind:     kind,
			Price:    cmd.Price,
			Quantity: cmd.Quantity,
		})
		return err
	case "cancel":
		_, err := c.engine.Cancel(cmd.ID)
		return err
	case "modify":
		_, err := c.engine.Modify(cmd.ID, cmd.NewPrice, cmd.NewQty)
		return err
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// ParseSide maps the wire side to the domain type.
func ParseSide(s string) (book.Side, error) {
	switch s {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// ParseKind maps the wire kind to the domain type.
func ParseKind(s string) (book.Kind, error) {
	switch s {
	case "limit", "":
		return book.Limit, nil
	case "market":
		return book.Market, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
