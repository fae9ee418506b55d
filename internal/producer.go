package internal

import (
	"encoding/json"

	"github.com/IBM/sarama"
)

type EventPublisher interface {
	SendCaptionEvent(event *CaptionEvent) error
}

type Producer struct {
	config   KafkaConfig
	producer sarama.SyncProducer
}

func NewProducer(config KafkaConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	return NewProducerWith(config, producer), nil
}

func NewProducerWith(config KafkaConfig, producer sarama.SyncProducer) *Producer {
	return &Producer{
		config:   config,
		producer: producer,
	}
}

func (producer *Producer) SendCaptionEvent(event *CaptionEvent) error {
	jsonEvent, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, _, err = producer.producer.SendMessage(&sarama.ProducerMessage{
		Topic: producer.config.CaptionTopic,
		Key:   sarama.StringEncoder(event.File),
		Value: sarama.ByteEncoder(jsonEvent),
	})
	return err
}

func (producer *Producer) Close() error {
	return producer.producer.Close()
}
