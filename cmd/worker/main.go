package main

import (
	"captionservice/internal"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := internal.ReadConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to read config")
		return err
	}

	log := internal.NewLogger(cfg.Log)

	if len(cfg.Kafka.Brokers) == 0 {
		err := errors.New("kafka.brokers is not configured")
		log.WithError(err).Error("Cannot start worker")
		return err
	}

	producer, err := internal.NewProducer(cfg.Kafka)
	if err != nil {
		log.WithError(err).Error("Failed to create producer")
		return err
	}
	defer producer.Close()

	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	consumerGroup, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.Group, saramaConfig)
	if err != nil {
		log.WithError(err).Error("Failed to create consumer group")
		return err
	}
	defer consumerGroup.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	captioner, err := internal.NewCaptionerFromConfig(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to load model")
		return err
	}

	consumer := internal.NewConsumer(cfg.Kafka, captioner, producer, log)
	poller := internal.NewPoller(captioner.Model(), captioner.Translator(), cfg.Health.PollPeriod, log)

	go poller.Run(ctx)

	log.WithField("topic", cfg.Kafka.TaskTopic).Info("Starting consumer")
	if err := consumer.Run(ctx, consumerGroup); err != nil {
		log.WithError(err).Error("Failed to run consumer")
		return err
	}
	log.Info("Consumer stopped")
	return nil
}
