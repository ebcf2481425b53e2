package rabbitmq_client

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"volur/types"
)

const defaultQueue = "volur"

type Config struct {
	Server string
	Port   string
	User   string
	Pass   string
	Queue  string
}

// URL builds the AMQP connection string.
func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Pass, c.Server, c.Port)
}

// Publisher sends valuation events to a durable queue.
type Publisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queue      amqp.Queue
}

func NewPublisher(cfg Config) (*Publisher, error) {
	zap.L().Sugar().Infof("RabbitMQ Server: %s", cfg.Server)
	zap.L().Sugar().Infof("RabbitMQ Port: %s", cfg.Port)
	zap.L().Sugar().Infof("RabbitMQ User: %s", cfg.User)

	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("rabbitmq initialization failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	queueName := cfg.Queue
	if queueName == "" {
		queueName = defaultQueue
	}
	q, err := ch.QueueDeclare(
		queueName, // Name of the queue
		true,      // Durable
		false,     // Delete when unused
		false,     // Exclusive
		false,     // No-wait
		nil,       // Arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	zap.L().Info("Connected to RabbitMQ.", zap.String("queue", q.Name))
	return &Publisher{connection: conn, channel: ch, queue: q}, nil
}

func (p *Publisher) SendMessage(event types.VolurEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("Error encoding event for rabbitmq", zap.Error(err))
		return
	}

	err = p.channel.Publish(
		"",           // Exchange (empty means default)
		p.queue.Name, // Routing key (queue name in this case)
		false,        // Mandatory
		false,        // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Body:         message,
		})
	if err != nil {
		zap.L().Error("Error publishing message to rabbitmq: ", zap.Error(err))
		return
	}
	zap.L().Debug("Successfully sent message to rabbitmq.", zap.String("id", event.ID))
}

func (p *Publisher) Close() {
	p.channel.Close()
	p.connection.Close()
}
