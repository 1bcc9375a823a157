package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ PackageQueue = (*Kafka)(nil)

type Kafka struct {
	producer *kafka.Producer
}

func NewKafka(brokers string) (*Kafka, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	return &Kafka{producer: producer}, nil
}

func (k *Kafka) PublishPackageEvent(ctx context.Context, event *PackageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &PackageEventsTopic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.PackageUUID),
		Value: data,
	}, nil)
	if err != nil {
		logrus.Errorf("failed to publish package event: %v", err)
	}

	return err
}

func (k *Kafka) Close() {
	k.producer.Close()
}
