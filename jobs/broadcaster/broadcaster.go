// Package broadcaster publishes executed trades to Kafka from the trade
// store outbox. Delivery is at-least-once: a trade is marked Sent before
// the publish attempt and Acked only after the broker confirms, so a
// crash between the two re-sends on the next scan.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"kestrel/domain/book"
	"kestrel/infra/tradestore"
)

type Broadcaster struct {
	store    *tradestore.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

// TradeEvent is the wire format published per trade.
type TradeEvent struct {
	V       int    `json:"v"`
	TradeID uint64 `json:"tradeId"`
	TakerID uint64 `json:"takerId"`
	MakerID uint64 `json:"makerId"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
	Seq     uint64 `json:"seq"`
	Time    int64  `json:"time"`
}

func New(store *tradestore.Store, brokers []string, topic string, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

// Run scans and publishes until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishPending()
		}
	}
}

func (b *Broadcaster) publishPending() {
	err := b.store.ScanPending(func(id uint64, tr book.Trade, _ tradestore.PublishState) error {
		if err := b.store.MarkSent(id); err != nil {
			return err
		}

		payload, err := json.Marshal(TradeEvent{
			V:       1,
			TradeID: id,
			TakerID: tr.TakerID,
			MakerID: tr.MakerID,
			Price:   tr.Price,
			Qty:     tr.Qty,
			Seq:     tr.Seq,
			Time:    tr.Time.UnixNano(),
		})
		if err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// Stays in Sent; the next scan retries it.
			b.log.Warn("trade publish failed", zap.Uint64("trade_id", id), zap.Error(err))
			return nil
		}

		return b.store.MarkAcked(id)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
