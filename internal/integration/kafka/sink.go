// Package kafka publishes stored notifications to the activity stream topic.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"booknook-go/internal/domain/notification"
	kafkago "github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Sink struct {
	writer messageWriter
}

func NewSink(cfg Config) *Sink {
	return &Sink{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

type event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ClubID      *string   `json:"club_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Sink) Name() string {
	return "kafka"
}

// Deliver keys the message by recipient so one user's stream stays ordered.
func (s *Sink) Deliver(ctx context.Context, delivery notification.Delivery) error {
	return s.DeliverBatch(ctx, []notification.Delivery{delivery})
}

// DeliverBatch writes one job's deliveries in a single produce call.
func (s *Sink) DeliverBatch(ctx context.Context, deliveries []notification.Delivery) error {
	messages := make([]kafkago.Message, 0, len(deliveries))
	for _, delivery := range deliveries {
		message, err := toMessage(delivery.Notification)
		if err != nil {
			return err
		}
		messages = append(messages, message)
	}
	if len(messages) == 0 {
		return nil
	}
	return s.writer.WriteMessages(ctx, messages...)
}

func toMessage(item notification.Notification) (kafkago.Message, error) {
	value, err := json.Marshal(event{
		ID:          item.ID,
		UserID:      item.UserID,
		ClubID:      item.ClubID,
		Type:        item.Type,
		Title:       item.Title,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
	})
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{Key: []byte(item.UserID), Value: value}, nil
}

func (s *Sink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
