// Package events publishes booking lifecycle events to kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	"github.com/navlight/booking-service/config"
)

// envelope is the wire form of every published event.
type envelope struct {
	Event   string      `json:"event"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(addrs []string) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(addrs, defaultCfg)
}

func NewPublisher(cfg config.Kafka) (*Publisher, error) {
	producer, err := NewProducer(cfg.Addrs)
	if err != nil {
		return nil, errors.Wrap(err, "new sync producer")
	}
	return &Publisher{producer: producer, topic: cfg.Topic}, nil
}

func (p *Publisher) Publish(_ context.Context, event string, payload any) error {
	msg, err := json.Marshal(envelope{Event: event, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event),
		Value: sarama.ByteEncoder(msg),
	})
	return errors.Wrap(err, "send message")
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
