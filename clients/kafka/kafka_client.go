package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"volur/types"
)

type Config struct {
	BootstrapServers  string
	Topic             string
	NumPartitions     int
	ReplicationFactor int
}

// Producer publishes valuation events to a Kafka topic.
type Producer struct {
	producer *kafka.Producer
	topic    string
}

// NewProducer connects to the cluster and makes sure the topic exists.
func NewProducer(ctx context.Context, cfg Config) (*Producer, error) {
	zap.L().Info("KAFKA_BOOTSTRAPSERVERS: ", zap.String("uri", cfg.BootstrapServers))

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         "volur",
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer initialization failed: %w", err)
	}

	if err := createTopic(ctx, producer, cfg); err != nil {
		zap.L().Error("Failed to create topic: ", zap.Error(err))
	}

	// Delivery report handler for produced messages
	go func() {
		for e := range producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					zap.L().Error("Kafka Delivery failed: ", zap.Error(ev.TopicPartition.Error))
				} else {
					zap.L().Sugar().Debugf("Delivered message to %s", *ev.TopicPartition.Topic)
				}
			}
		}
	}()

	zap.L().Info("Connected to Kafka", zap.String("topic", cfg.Topic))
	return &Producer{producer: producer, topic: cfg.Topic}, nil
}

func createTopic(ctx context.Context, producer *kafka.Producer, cfg Config) error {
	admin, err := kafka.NewAdminClientFromProducer(producer)
	if err != nil {
		return err
	}
	defer admin.Close()

	numParts := cfg.NumPartitions
	if numParts <= 0 {
		numParts = 1
	}
	replicationFactor := cfg.ReplicationFactor
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	results, err := admin.CreateTopics(
		ctx,
		[]kafka.TopicSpecification{{
			Topic:             cfg.Topic,
			NumPartitions:     numParts,
			ReplicationFactor: replicationFactor}},
		kafka.SetAdminOperationTimeout(60*time.Second))
	if err != nil {
		return err
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return result.Error
		}
	}
	return nil
}

// SendMessage publishes event as JSON. Failures are logged; events are best effort.
func (p *Producer) SendMessage(event types.VolurEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("Error encoding event for kafka", zap.Error(err))
		return
	}

	zap.L().Sugar().Debugf("Sending message to kafka: %s", message)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Ticker),
		Value:          message,
	}, nil)
	if err != nil {
		zap.L().Error("Error sending message to kafka: ", zap.Error(err))
	}
}

// Close flushes outstanding messages for up to timeout and closes the producer.
func (p *Producer) Close(timeout time.Duration) {
	if remaining := p.producer.Flush(int(timeout.Milliseconds())); remaining > 0 {
		zap.L().Warn("Kafka messages left unflushed", zap.Int("count", remaining))
	}
	p.producer.Close()
}
