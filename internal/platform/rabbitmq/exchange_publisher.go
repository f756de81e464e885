package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"cerebro/internal/model"
)

// ExchangePublisher hands finished chat exchanges to the persistence worker.
type ExchangePublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewExchangePublisher(conn *amqp.Connection, queueName string) *ExchangePublisher {
	return &ExchangePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ExchangePublisher) Record(ctx context.Context, entry model.ExchangeLog) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal exchange payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish exchange failed: %w", err)
	}
	return nil
}
