package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"matchday/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishTicketSold streams a completed purchase.
func (p *Producer) PublishTicketSold(topic string, purchase models.UserTicket) error {
	msgBytes, err := json.Marshal(purchase)
	if err != nil {
		return err
	}
	return p.Publish(topic, fmt.Sprintf("%d", purchase.TicketID), msgBytes)
}

// PublishTicketsGenerated streams an operator batch-creation event.
func (p *Producer) PublishTicketsGenerated(topic string, matchID int64, count int) error {
	msgBytes, err := json.Marshal(map[string]any{
		"match_id": matchID,
		"count":    count,
	})
	if err != nil {
		return err
	}
	return p.Publish(topic, fmt.Sprintf("%d", matchID), msgBytes)
}

// PublishSubscriptionCreated streams a new subscription.
func (p *Producer) PublishSubscriptionCreated(topic string, sub models.Subscription) error {
	msgBytes, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return p.Publish(topic, fmt.Sprintf("%d", sub.UserID), msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
