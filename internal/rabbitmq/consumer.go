package rabbitmq

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
// Задания обрабатываются последовательно: рассылка сама дозирует темп
// доставки, и параллельные батчи только мешали бы друг другу. Ошибка
// обработчика возвращает сообщение в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				if err := handler(d.Body); err != nil {
					if nackErr := d.Nack(false, true); nackErr != nil {
						log.Printf("failed to nack message: %v", nackErr)
					}
					continue
				}
				if ackErr := d.Ack(false); ackErr != nil {
					log.Printf("failed to ack message: %v", ackErr)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
