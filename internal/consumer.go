package internal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Consumer captions the requests arriving on the task topic and publishes the results.
type Consumer struct {
	config    KafkaConfig
	captioner *Captioner
	publisher EventPublisher
	log       *logrus.Logger
}

func NewConsumer(config KafkaConfig, captioner *Captioner, publisher EventPublisher, log *logrus.Logger) *Consumer {
	return &Consumer{
		config:    config,
		captioner: captioner,
		publisher: publisher,
		log:       log,
	}
}

func (consumer *Consumer) Run(ctx context.Context, consumerGroup sarama.ConsumerGroup) error {
	for {
		if err := consumerGroup.Consume(ctx, []string{consumer.config.TaskTopic}, consumer); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			consumer.log.WithError(err).Error("Error from consumer")
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Info("message channel was closed")
				return nil
			}
			var err error
			if message.Topic == consumer.config.TaskTopic {
				err = consumer.ProcessRequest(session.Context(), message.Value)
			} else {
				consumer.log.WithField("topic", message.Topic).Error("Unknown topic")
			}
			if err != nil {
				consumer.log.WithError(err).Error("Error processing message")
				return err
			} else {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// ProcessRequest captions one request and publishes the outcome. Caption failures are
// published as error events; only a failure to publish is returned.
func (consumer *Consumer) ProcessRequest(ctx context.Context, value []byte) error {
	var request CaptionRequestEvent

	if err := json.Unmarshal(value, &request); err != nil {
		consumer.log.WithError(err).WithField("value", string(value)).Error("Dropping malformed caption request")
		return nil
	}
	if request.Id == "" {
		request.Id = uuid.NewString()
	}

	entry := consumer.log.WithField("id", request.Id).WithField("file", request.File)
	entry.Info("Processing caption request")

	event := &CaptionEvent{
		Id:   request.Id,
		File: request.File,
	}

	result, err := consumer.captioner.Caption(ctx, request.File)
	if err != nil {
		e := AsError(err)
		entry.WithError(e).WithField("kind", e.Kind).Warn("Caption request failed")
		body := e.Body()
		event.Error = &body
	} else {
		event.Result = result
	}
	event.Ts = time.Now().UTC()

	if err := consumer.publisher.SendCaptionEvent(event); err != nil {
		return err
	}
	entry.Info("Caption request processed")

	return nil
}
