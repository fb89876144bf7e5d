package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/DoRRet/TarotBot/internal/models"
)

// PublishMessage публикует произвольное сообщение в обменник.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// BroadcastPublisher публикует задания рассылки в очередь.
type BroadcastPublisher struct {
	ch *amqp.Channel
}

// NewBroadcastPublisher создает издателя заданий рассылки.
func NewBroadcastPublisher(ch *amqp.Channel) *BroadcastPublisher {
	return &BroadcastPublisher{ch: ch}
}

// Publish ставит задание рассылки в очередь.
func (p *BroadcastPublisher) Publish(ctx context.Context, task models.BroadcastTask) error {
	const op = "rabbitmq.BroadcastPublisher.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if err := PublishMessage(p.ch, BroadcastExchange, BroadcastRoutingKey, task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
