package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"cerebro/internal/model"
	"cerebro/internal/platform/rabbitmq"
)

// ExchangeStore persists decoded exchange records.
type ExchangeStore interface {
	Create(ctx context.Context, entry *model.ExchangeLog) error
}

// ExchangeLogWorker drains the exchange queue into the database.
type ExchangeLogWorker struct {
	conn      *amqp.Connection
	store     ExchangeStore
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExchangeLogWorker(conn *amqp.Connection, store ExchangeStore, queueName string, log *zap.Logger) *ExchangeLogWorker {
	return &ExchangeLogWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log,
	}
}

func (w *ExchangeLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *ExchangeLogWorker) handle(ctx context.Context, d amqp.Delivery) {
	var entry model.ExchangeLog
	if err := json.Unmarshal(d.Body, &entry); err != nil {
		w.log.Error("decode exchange log failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	entry.ID = 0
	if err := w.store.Create(ctx, &entry); err != nil {
		w.log.Error("persist exchange log failed", zap.String("session_id", entry.SessionID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *ExchangeLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
